package session

import "io"

// stdio joins a child process's stdout and stdin pipes into the single
// read-write-closer the protocol stream expects.
type stdio struct {
	in  io.ReadCloser
	out io.WriteCloser
}

func (s stdio) Read(p []byte) (int, error) {
	return s.in.Read(p)
}

func (s stdio) Write(p []byte) (int, error) {
	return s.out.Write(p)
}

func (s stdio) Close() error {
	inErr := s.in.Close()
	outErr := s.out.Close()
	if outErr != nil {
		return outErr
	}
	return inErr
}
