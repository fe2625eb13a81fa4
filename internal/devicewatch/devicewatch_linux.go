//go:build linux

// Package devicewatch optionally watches udev for the disappearance of a
// configured USB SDR front end, purely as a diagnostic: if the input
// stream goes quiet, this lets the operator tell "the dongle was
// unplugged" apart from "the feeder process exited" in the log, without
// the watcher ever blocking or controlling anything itself.
package devicewatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/jochenvg/go-udev"

	"github.com/doismellburning/narrowcast/internal/rflog"
)

// Watcher reports USB device removal events for a single vendor:product
// pair over Removed.
type Watcher struct {
	vendorProduct string
	Removed       chan struct{}
}

// New builds a watcher for a device identified as "vendor:product" (the
// same form lsusb prints), e.g. "0bda:2838" for an RTL-SDR dongle.
func New(vendorProduct string) *Watcher {
	return &Watcher{vendorProduct: vendorProduct, Removed: make(chan struct{}, 1)}
}

// Run blocks watching udev "remove" events on the usb subsystem until ctx
// is canceled, signaling Removed whenever the configured device vanishes.
func (w *Watcher) Run(ctx context.Context) error {
	if w.vendorProduct == "" {
		<-ctx.Done()
		return nil
	}

	u := udev.Udev{}
	mon := u.NewMonitorFromNetlink("udev")
	if err := mon.FilterAddMatchSubsystem("usb"); err != nil {
		return err
	}

	ch, errCh, err := mon.DeviceChan(ctx)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errCh:
			rflog.Warn("devicewatch: udev monitor error", "err", err)
		case dev := <-ch:
			if dev == nil {
				continue
			}
			if dev.Action() != "remove" {
				continue
			}
			if w.matches(dev.PropertyValue("PRODUCT")) {
				rflog.Warn("devicewatch: configured USB SDR device removed", "device", w.vendorProduct)
				select {
				case w.Removed <- struct{}{}:
				default:
				}
			}
		}
	}
}

// matches checks a udev PRODUCT property ("vendor/product/bcd", hex,
// unpadded) against the configured "vendor:product" string.
func (w *Watcher) matches(product string) bool {
	parts := strings.Split(product, "/")
	if len(parts) < 2 {
		return false
	}
	want := fmt.Sprintf("%s:%s", parts[0], parts[1])
	return strings.EqualFold(want, normalizeVendorProduct(w.vendorProduct))
}

func normalizeVendorProduct(vp string) string {
	parts := strings.SplitN(vp, ":", 2)
	if len(parts) != 2 {
		return vp
	}
	return fmt.Sprintf("%s:%s", strings.TrimLeft(parts[0], "0"), strings.TrimLeft(parts[1], "0"))
}
