package invoice

import (
	"fmt"
	"os"
	"os/exec"
)

// Printer is the external print sink: it receives the rendered invoice
// text unmodified.
type Printer interface {
	Print(text string) error
}

// LPPrinter spools text to the platform print command. The text is written
// to a temp file and handed to lp, mirroring how attendant stations print.
type LPPrinter struct{}

func (LPPrinter) Print(text string) error {
	f, err := os.CreateTemp("", "invoice-*.txt")
	if err != nil {
		return fmt.Errorf("invoice: create spool file: %w", err)
	}
	name := f.Name()
	defer os.Remove(name)

	if _, err := f.WriteString(text); err != nil {
		f.Close()
		return fmt.Errorf("invoice: write spool file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("invoice: close spool file: %w", err)
	}
	if out, err := exec.Command("lp", name).CombinedOutput(); err != nil {
		return fmt.Errorf("invoice: lp failed: %v: %s", err, out)
	}
	return nil
}
