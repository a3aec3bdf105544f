// Command pyin-gpio-led is an embedded bridge consumer: it reads raw I16LE
// PCM from stdin, runs it through the thin MIDI-byte streaming Processor,
// and drives a GPIO line high for as long as the latest frame was voiced
// -- e.g. an LED indicator on a Raspberry Pi class board with no
// floating-point display of its own.
package main

import (
	"bufio"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
	"github.com/warthog618/go-gpiocdev"

	pyin "github.com/yinscope/pyin/pitch"
)

func main() {
	var (
		chipName   = pflag.String("chip", "gpiochip0", "GPIO chip device name")
		line       = pflag.Uint("line", 17, "GPIO line number to drive")
		sampleRate = pflag.Uint32("rate", 44100, "sample rate in Hz")
		windowMs   = pflag.Float64("window-ms", 43, "analysis window in milliseconds")
		hopMs      = pflag.Float64("hop-ms", 10, "hop in milliseconds")
	)
	pflag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "pyin-gpio-led"})

	ledLine, err := gpiocdev.RequestLine(*chipName, int(*line), gpiocdev.AsOutput(0))
	if err != nil {
		logger.Fatal("requesting gpio line", "err", err)
	}
	defer ledLine.Close()

	proc := pyin.NewProcessor(*sampleRate, *windowMs, *hopMs)

	reader := bufio.NewReaderSize(os.Stdin, 4096)
	buf := make([]byte, 4096)
	voiced := false

	for {
		n, err := reader.Read(buf)
		if n > 0 {
			note := proc.PushAndGetMidi(buf[:n])
			nowVoiced := note != pyin.UnvoicedSentinel
			if nowVoiced != voiced {
				voiced = nowVoiced
				level := 0
				if voiced {
					level = 1
				}
				if setErr := ledLine.SetValue(level); setErr != nil {
					logger.Warn("setting gpio level", "err", setErr)
				}
			}
		}
		if err == io.EOF {
			return
		}
		if err != nil {
			logger.Warn("reading stdin", "err", err)
			return
		}
	}
}
