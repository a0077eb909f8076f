//go:build !linux

package mq

// Open is not available off linux.
func (p *Posix) Open(name string, attr Attr) (Queue, error) {
	if _, err := kernelName(name); err != nil {
		return nil, err
	}
	return nil, ErrUnsupported
}

// Unlink is not available off linux.
func (p *Posix) Unlink(name string) error {
	return ErrUnsupported
}
