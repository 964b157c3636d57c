package cmd

import (
	"fmt"
	"sync"
	"time"

	"atomicgo.dev/cursor"
	"github.com/pterm/pterm"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// withSpinner shows an animated line with text while fn runs. The line is
// removed once fn returns. Without an interactive area it just runs fn.
func withSpinner(text string, fn func()) {
	cursor.Hide()
	defer cursor.Show()

	area, err := pterm.DefaultArea.WithRemoveWhenDone(true).Start()
	if err != nil {
		fn()
		return
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		t := time.NewTicker(120 * time.Millisecond)
		defer t.Stop()
		for i := 0; ; i++ {
			area.Update(fmt.Sprintf("%s %s", spinnerFrames[i%len(spinnerFrames)], text))
			select {
			case <-t.C:
			case <-stop:
				return
			}
		}
	}()

	fn()
	close(stop)
	wg.Wait()
	_ = area.Stop()
}
