package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/coreman2200/arcaluminis-ws2812/internal/led"
)

var spidevPattern = regexp.MustCompile(`spidev(\d+)\.(\d+)$`)

// ParseDevice extracts bus and chip select from a path like /dev/spidev1.0.
func ParseDevice(path string) (bus, cs int, err error) {
	m := spidevPattern.FindStringSubmatch(path)
	if m == nil {
		return 0, 0, fmt.Errorf("%w: cannot extract bus and chip select from %q", led.ErrInvalidConfiguration, path)
	}
	if bus, err = strconv.Atoi(m[1]); err != nil {
		return 0, 0, fmt.Errorf("%w: bus in %q: %v", led.ErrInvalidConfiguration, path, err)
	}
	if cs, err = strconv.Atoi(m[2]); err != nil {
		return 0, 0, fmt.Errorf("%w: chip select in %q: %v", led.ErrInvalidConfiguration, path, err)
	}
	return bus, cs, nil
}

// CheckDevice verifies path is a character device that can be opened
// read-write.
func CheckDevice(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %v", led.ErrDeviceUnavailable, err)
	}
	if fi.Mode()&os.ModeCharDevice == 0 {
		return fmt.Errorf("%w: %s is not a character device", led.ErrDeviceUnavailable, path)
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("%w: %s cannot be opened read-write: %v", led.ErrDeviceUnavailable, path, err)
	}
	return f.Close()
}
