//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// sampleLog is a trimmed kernel trace with a few repeated interrupt sources.
var sampleLog = []string{
	`[    0.000000] Booting Linux on physical CPU 0x0000000000 [0x410fd034]`,
	`[    0.104211] hvisor: zone 1 started`,
	`[    1.220480] <idle>-0 [000] d.h1. gic_handle_irq("arch_timer")`,
	`[    1.220913] <idle>-0 [001] d.h1. gic_handle_irq("uart0")`,
	`[    1.221007] <idle>-0 [000] d.h1. gic_handle_irq("arch_timer")`,
	`[    1.301552] kworker/0:1-23 [000] d.h2. gic_handle_irq("virtio_blk")`,
	`[    1.302114] <idle>-0 [001] d.h1. gic_handle_irq("eth0")`,
	`[    1.302900] <idle>-0 [001] d.h1. gic_handle_irq("uart0")`,
}

// Sample writes a sample gic.txt next to the built binary.
func Sample() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	path := filepath.Join(binDir, "gic.txt")
	if err := os.WriteFile(path, []byte(strings.Join(sampleLog, "\n")+"\n"), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}
