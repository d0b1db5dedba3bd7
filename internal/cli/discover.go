package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"obex-browser/internal/connmgr"
	"obex-browser/internal/errs"
	"obex-browser/internal/navigator"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type DiscoverConfig struct {
	ScanTimeout time.Duration
	// Address preselects a device by MAC and skips the selection prompt.
	Address string
}

func (c DiscoverConfig) Validate() error {
	if c.ScanTimeout <= 0 {
		return errors.New("scan timeout must be positive")
	}
	return nil
}

type DiscoverResult struct {
	Device  connmgr.Device
	Service connmgr.ServiceRecord
}

// Discover scans for nearby devices, lets the user pick one and finds its
// OBEX file transfer service.
func (s Service) Discover(ctx context.Context, cfg DiscoverConfig) (*DiscoverResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}
	if s.Discovery == nil {
		return nil, errors.New("no discovery backend configured")
	}

	scanCtx, cancel := context.WithTimeout(ctx, cfg.ScanTimeout)
	stop := Spin(fmt.Sprintf("Scanning for Bluetooth devices (%s)...", cfg.ScanTimeout), s.StdoutIsTTY, s.Stdout)
	devices, err := s.Discovery.Scan(scanCtx)
	stop()
	cancel()
	if err != nil {
		return nil, errs.E(errs.KindDiscovery, "scan", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.E(errs.KindDiscovery, "scan", err)
	}
	if len(devices) == 0 {
		return nil, errs.E(errs.KindDiscovery, "scan", errs.ErrNoDevices)
	}
	s.log.Debug("scan finished", zap.Int("devices", len(devices)))

	fmt.Fprintln(s.Stdout, "\nDevices found:")
	for i, d := range devices {
		fmt.Fprintf(s.Stdout, "  %d) %s [%s]\n", i+1, d.DisplayName(), d.MAC)
	}

	var device connmgr.Device
	if cfg.Address != "" {
		device, err = findDevice(devices, cfg.Address)
	} else {
		device, err = s.chooseDevice(devices)
	}
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(s.Stdout, "[+] Selected: %s [%s]\n", device.DisplayName(), device.MAC)

	fmt.Fprintf(s.Stdout, "[+] Searching OBEX services on %s ...\n", device.MAC)
	services, err := s.Discovery.Services(ctx, device)
	if err != nil {
		return nil, errs.E(errs.KindConnect, "services "+device.MAC, err)
	}
	for _, svc := range services {
		fmt.Fprintf(s.Stdout, "  Found service: %s (%s)\n", svc.Name, svc.UUID)
	}

	service, ok := connmgr.FindOBEXService(services)
	if !ok {
		return nil, errs.E(errs.KindConnect, "services "+device.MAC, errs.ErrNoOBEXService)
	}
	fmt.Fprintf(s.Stdout, "[+] Found OBEX service '%s' on channel %d\n", service.Name, service.Channel)

	return &DiscoverResult{Device: device, Service: service}, nil
}

// Run discovers a device, opens an OBEX session to it and browses it.
func (s Service) Run(ctx context.Context, cfg DiscoverConfig) (navigator.Result, error) {
	if s.OpenSession == nil {
		return navigator.Result{}, errors.New("no session opener configured")
	}
	found, err := s.Discover(ctx, cfg)
	if err != nil {
		return navigator.Result{}, err
	}
	return s.Browse(ctx, s.OpenSession(found.Device.MAC, found.Service.Channel))
}

func findDevice(devices []connmgr.Device, address string) (connmgr.Device, error) {
	for _, d := range devices {
		if strings.EqualFold(d.MAC, address) {
			return d, nil
		}
	}
	return connmgr.Device{}, errs.E(errs.KindDiscovery, "select", errors.Errorf("device %s was not found during the scan", address))
}

func (s Service) chooseDevice(devices []connmgr.Device) (connmgr.Device, error) {
	for {
		fmt.Fprint(s.Stdout, "Select the target device number: ")
		line, err := s.readLine()
		if err != nil {
			return connmgr.Device{}, errs.E(errs.KindInput, "select", err)
		}
		idx, convErr := strconv.Atoi(line)
		if convErr != nil || strings.ContainsAny(line, "+-") {
			fmt.Fprintln(s.Stdout, "Enter a valid number.")
			continue
		}
		if idx < 1 || idx > len(devices) {
			fmt.Fprintf(s.Stdout, "Select a number between 1 and %d.\n", len(devices))
			continue
		}
		return devices[idx-1], nil
	}
}

// readLine returns the next trimmed input line. A final line without a
// newline is still returned; io.EOF comes only once input is exhausted.
func (s Service) readLine() (string, error) {
	line, err := s.stdin.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}
