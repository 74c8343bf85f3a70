package led

import (
	"fmt"
	"io"
	"sync"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
)

// ClockFreq is the SPI clock the symbol widths are computed for.
const ClockFreq = 6500 * physic.KiloHertz

// Transport accepts encoded buffers. Tx blocks until the buffer is sent and
// does not retain w.
type Transport interface {
	Tx(w []byte) error
	Close() error
}

// SPI is a Transport over a periph SPI port, mode 0, 8 bits per word,
// MSB first.
type SPI struct {
	mu   sync.Mutex
	port spi.Port
	conn spi.Conn
}

// DevicePath is the spidev node for bus and chip select.
func DevicePath(bus, cs int) string {
	return fmt.Sprintf("/dev/spidev%d.%d", bus, cs)
}

// OpenSPI opens /dev/spidev<bus>.<cs> through the periph registry.
// host.Init must have run first.
func OpenSPI(bus, cs int) (*SPI, error) {
	if bus < 0 || cs < 0 {
		return nil, fmt.Errorf("%w: bus %d cs %d", ErrInvalidConfiguration, bus, cs)
	}
	name := DevicePath(bus, cs)
	p, err := spireg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrDeviceUnavailable, name, err)
	}
	s, err := NewSPI(p)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	return s, nil
}

// NewSPI connects an already opened port at ClockFreq.
func NewSPI(p spi.Port) (*SPI, error) {
	c, err := p.Connect(ClockFreq, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("%w: configure %s: %v", ErrDeviceUnavailable, p, err)
	}
	return &SPI{port: p, conn: c}, nil
}

// MaxTxSize is the largest single transfer the port accepts, 0 if unknown.
func (s *SPI) MaxTxSize() int {
	if l, ok := s.conn.(conn.Limits); ok {
		return l.MaxTxSize()
	}
	return 0
}

func (s *SPI) String() string {
	return s.port.String()
}

func (s *SPI) Tx(w []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return fmt.Errorf("%w: %s closed", ErrTransmit, s.port)
	}
	if err := s.conn.Tx(w, nil); err != nil {
		return fmt.Errorf("%w: %v", ErrTransmit, err)
	}
	return nil
}

func (s *SPI) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	s.conn = nil
	if c, ok := s.port.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
