package printer

import (
	"fmt"

	"github.com/google/gousb"
)

// USBTransport talks to a printer over a USB bulk OUT endpoint. The
// device is addressed by vendor/product id; unless an endpoint is
// pinned, the first OUT endpoint on the configured interface is used.
type USBTransport struct {
	vendorID    uint16
	productID   uint16
	interfaceNo int
	endpointNo  int // 0 means auto-select the first OUT endpoint

	ctx     *gousb.Context
	device  *gousb.Device
	intf    *gousb.Interface
	intfRel func()
	out     *gousb.OutEndpoint
}

// NewUSBTransport creates a transport for the device vendorID:productID
// on the given interface. endpointNo pins a specific OUT endpoint
// number; pass 0 to auto-select.
func NewUSBTransport(vendorID, productID uint16, interfaceNo, endpointNo int) *USBTransport {
	return &USBTransport{
		vendorID:    vendorID,
		productID:   productID,
		interfaceNo: interfaceNo,
		endpointNo:  endpointNo,
	}
}

func (t *USBTransport) Open() error {
	ctx := gousb.NewContext()

	device, err := ctx.OpenDeviceWithVIDPID(gousb.ID(t.vendorID), gousb.ID(t.productID))
	if err != nil {
		ctx.Close()
		return fmt.Errorf("opening USB device %04x:%04x: %w", t.vendorID, t.productID, err)
	}
	if device == nil {
		ctx.Close()
		return fmt.Errorf("USB device not found: %04x:%04x", t.vendorID, t.productID)
	}

	// The kernel usblp driver typically owns thermal printers.
	if err := device.SetAutoDetach(true); err != nil {
		device.Close()
		ctx.Close()
		return fmt.Errorf("detaching kernel driver from %04x:%04x: %w", t.vendorID, t.productID, err)
	}

	cfg, err := device.Config(1)
	if err != nil {
		device.Close()
		ctx.Close()
		return fmt.Errorf("selecting USB configuration: %w", err)
	}

	intf, err := cfg.Interface(t.interfaceNo, 0)
	if err != nil {
		cfg.Close()
		device.Close()
		ctx.Close()
		return fmt.Errorf("claiming USB interface %d: %w", t.interfaceNo, err)
	}

	out, err := t.findOutEndpoint(intf)
	if err != nil {
		intf.Close()
		cfg.Close()
		device.Close()
		ctx.Close()
		return err
	}

	t.ctx = ctx
	t.device = device
	t.intf = intf
	t.intfRel = func() {
		intf.Close()
		cfg.Close()
	}
	t.out = out
	return nil
}

func (t *USBTransport) findOutEndpoint(intf *gousb.Interface) (*gousb.OutEndpoint, error) {
	if t.endpointNo != 0 {
		out, err := intf.OutEndpoint(t.endpointNo)
		if err != nil {
			return nil, fmt.Errorf("opening OUT endpoint %d: %w", t.endpointNo, err)
		}
		return out, nil
	}

	for _, ep := range intf.Setting.Endpoints {
		if ep.Direction == gousb.EndpointDirectionOut {
			out, err := intf.OutEndpoint(ep.Number)
			if err != nil {
				return nil, fmt.Errorf("opening OUT endpoint %d: %w", ep.Number, err)
			}
			return out, nil
		}
	}
	return nil, fmt.Errorf("no OUT endpoint on interface %d", t.interfaceNo)
}

func (t *USBTransport) Write(data []byte) (int, error) {
	if t.out == nil {
		return 0, ErrNotOpen
	}
	n, err := t.out.Write(data)
	if err != nil {
		return n, fmt.Errorf("writing to USB device %04x:%04x: %w", t.vendorID, t.productID, err)
	}
	return n, nil
}

func (t *USBTransport) Close() error {
	if t.intfRel != nil {
		t.intfRel()
		t.intfRel = nil
		t.intf = nil
	}
	if t.device != nil {
		t.device.Close()
		t.device = nil
	}
	t.out = nil
	if t.ctx != nil {
		err := t.ctx.Close()
		t.ctx = nil
		return err
	}
	return nil
}

// USBDeviceInfo describes one USB device on the host.
type USBDeviceInfo struct {
	VendorID     string
	ProductID    string
	Manufacturer string
	Product      string
	SerialNumber string
}

// ListUSBDevices enumerates USB devices, reading descriptor strings
// where the device allows it.
func ListUSBDevices() ([]USBDeviceInfo, error) {
	ctx := gousb.NewContext()
	defer ctx.Close()

	devices, err := ctx.OpenDevices(func(*gousb.DeviceDesc) bool { return true })
	// OpenDevices can return partial results alongside an error when
	// some devices refuse to open; report what was readable.
	var infos []USBDeviceInfo
	for _, dev := range devices {
		info := USBDeviceInfo{
			VendorID:  fmt.Sprintf("0x%04x", uint16(dev.Desc.Vendor)),
			ProductID: fmt.Sprintf("0x%04x", uint16(dev.Desc.Product)),
		}
		if s, err := dev.Manufacturer(); err == nil {
			info.Manufacturer = s
		}
		if s, err := dev.Product(); err == nil {
			info.Product = s
		}
		if s, err := dev.SerialNumber(); err == nil {
			info.SerialNumber = s
		}
		infos = append(infos, info)
		dev.Close()
	}

	if len(infos) == 0 && err != nil {
		return nil, fmt.Errorf("listing USB devices: %w", err)
	}
	return infos, nil
}
