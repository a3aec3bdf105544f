// Command pyinmeter streams PCM audio -- from a raw file, a WAV-ish file
// decoded through ffmpeg, or a live microphone -- through the pyin engine
// and prints a live pitch/MIDI meter, optionally recording a CSV trail.
package main

/*------------------------------------------------------------------
 *
 * Purpose:	Reference CLI front end for the streaming pYIN engine.
 *
 * Description:	Configuration is layered: an optional YAML file loaded
 *		first, then pflag command-line flags override it.
 *
 *----------------------------------------------------------------*/

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/creack/pty"
	"github.com/gordonklaus/portaudio"
	udev "github.com/jochenvg/go-udev"
	"github.com/lestrrat-go/strftime"
	term "github.com/pkg/term"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	pyin "github.com/yinscope/pyin/pitch"
)

type fileConfig struct {
	SampleRateHz uint32  `yaml:"sample_rate_hz"`
	FrameSize    int     `yaml:"frame_size"`
	HopSize      int     `yaml:"hop_size"`
	FminHz       float64 `yaml:"fmin_hz"`
	FmaxHz       float64 `yaml:"fmax_hz"`
}

func loadFileConfig(path string) (fileConfig, error) {
	var fc fileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

func main() {
	var (
		configPath  = pflag.StringP("config", "c", "", "YAML config file (overridden by flags below)")
		sampleRate  = pflag.Uint32("rate", 48000, "sample rate in Hz")
		frameSize   = pflag.Int("frame", 2048, "analysis frame size in samples")
		hopSize     = pflag.Int("hop", 256, "hop size in samples")
		fmin        = pflag.Float64("fmin", 50, "minimum tracked frequency in Hz")
		fmax        = pflag.Float64("fmax", 1200, "maximum tracked frequency in Hz")
		input       = pflag.StringP("input", "i", "", "input audio file (raw PCM16LE, or any ffmpeg-decodable container)")
		live        = pflag.Bool("live", false, "capture from the default microphone via PortAudio instead of --input")
		recordCSV   = pflag.String("record-csv", "", "directory to write a timestamped CSV of emitted frames into")
		logLevel    = pflag.String("log-level", "warn", "pyin log level: debug, info, warn, error")
		rawDecode   = pflag.Bool("raw", false, "treat --input as already-raw PCM16LE (skip ffmpeg demux)")
	)
	pflag.Parse()

	os.Setenv("PYIN_LOG_LEVEL", *logLevel)
	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "pyinmeter"})

	cfg := pyin.NewConfig(*sampleRate, *frameSize, *hopSize)
	cfg.FminHz = *fmin
	cfg.FmaxHz = *fmax

	// The config file is the base layer; any flag the user actually typed
	// on the command line overrides it. Flags left at their default do
	// not win against a file value -- checked via pflag.Changed, not
	// against the zero value, so "--fmin 0" would still be honored.
	if *configPath != "" {
		fc, err := loadFileConfig(*configPath)
		if err != nil {
			logger.Fatal("reading config file", "err", err)
		}
		if fc.SampleRateHz != 0 && !pflag.Lookup("rate").Changed {
			cfg.SampleRateHz = fc.SampleRateHz
		}
		if fc.FrameSize != 0 && !pflag.Lookup("frame").Changed {
			cfg.FrameSize = fc.FrameSize
		}
		if fc.HopSize != 0 && !pflag.Lookup("hop").Changed {
			cfg.HopSize = fc.HopSize
		}
		if fc.FminHz != 0 && !pflag.Lookup("fmin").Changed {
			cfg.FminHz = fc.FminHz
		}
		if fc.FmaxHz != 0 && !pflag.Lookup("fmax").Changed {
			cfg.FmaxHz = fc.FmaxHz
		}
	}

	engine, err := pyin.New(cfg, pyin.I16LE, pyin.EngineOptions{})
	if err != nil {
		logger.Fatal("constructing engine", "err", err)
	}

	var csvWriter *csv.Writer
	var csvFile *os.File
	if *recordCSV != "" {
		csvFile, csvWriter = openCSVSink(*recordCSV, logger)
		defer csvFile.Close()
		defer csvWriter.Flush()
	}

	meter := newTerminalMeter(logger)
	defer meter.Close()

	switch {
	case *live:
		runLive(engine, meter, csvWriter, logger)
	case *input != "":
		runFile(engine, *input, *rawDecode, meter, csvWriter, logger)
	default:
		logger.Fatal("one of --live or --input is required")
	}
}

// openCSVSink creates dir/pyin-<timestamp>.csv using strftime.
func openCSVSink(dir string, logger *log.Logger) (*os.File, *csv.Writer) {
	pattern, err := strftime.New("pyin-%Y%m%d-%H%M%S.csv")
	if err != nil {
		logger.Fatal("building strftime pattern", "err", err)
	}
	name := pattern.FormatString(time.Now())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Fatal("creating csv directory", "err", err)
	}
	f, err := os.Create(dir + string(os.PathSeparator) + name)
	if err != nil {
		logger.Fatal("creating csv file", "err", err)
	}
	w := csv.NewWriter(f)
	_ = w.Write([]string{"frame_index", "time_sec", "f0_hz", "voiced", "confidence", "midi_note"})
	return f, w
}

func writeCSVRow(w *csv.Writer, fe pyin.FrameEstimate) {
	if w == nil {
		return
	}
	f0 := ""
	midi := ""
	if fe.F0Hz != nil {
		f0 = strconv.FormatFloat(float64(*fe.F0Hz), 'f', 3, 64)
	}
	if fe.MidiNote != nil {
		midi = strconv.Itoa(*fe.MidiNote)
	}
	_ = w.Write([]string{
		strconv.FormatUint(fe.FrameIndex, 10),
		strconv.FormatFloat(fe.TimeSec, 'f', 4, 64),
		f0,
		strconv.FormatBool(fe.Voiced),
		strconv.FormatFloat(float64(fe.Confidence), 'f', 4, 64),
		midi,
	})
	w.Flush()
}

// runFile streams a file's bytes into the engine. Non-raw input is piped
// through ffmpeg under a pty, since media demuxing/decoding is explicitly
// an external collaborator, not part of the pitch-tracking core.
func runFile(engine *pyin.Engine, path string, raw bool, meter *terminalMeter, csvWriter *csv.Writer, logger *log.Logger) {
	var reader io.Reader

	if raw {
		f, err := os.Open(path)
		if err != nil {
			logger.Fatal("opening input", "err", err)
		}
		defer f.Close()
		reader = f
	} else {
		cmd := exec.Command("ffmpeg", "-i", path, "-f", "s16le", "-ac", "1", "-ar", "48000", "-")
		ptmx, err := pty.Start(cmd)
		if err != nil {
			logger.Fatal("starting ffmpeg decode", "err", err)
		}
		defer ptmx.Close()
		reader = ptmx
	}

	buf := make([]byte, 4096)
	for {
		n, err := reader.Read(buf)
		if n > 0 {
			for _, fe := range engine.PushBytes(buf[:n]) {
				meter.Render(fe)
				writeCSVRow(csvWriter, fe)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.Warn("reading input", "err", err)
			break
		}
	}
}

// runLive captures from the default PortAudio input device until
// interrupted.
func runLive(engine *pyin.Engine, meter *terminalMeter, csvWriter *csv.Writer, logger *log.Logger) {
	if err := portaudio.Initialize(); err != nil {
		logger.Fatal("initializing portaudio", "err", err)
	}
	defer portaudio.Terminate()

	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	deviceChanged := watchCaptureDeviceChanges(watchCtx, logger)

	const framesPerBuffer = 512
	in := make([]int16, framesPerBuffer)

	stream, err := portaudio.OpenDefaultStream(1, 0, 48000, framesPerBuffer, in)
	if err != nil {
		logger.Fatal("opening audio stream", "err", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		logger.Fatal("starting audio stream", "err", err)
	}
	defer stream.Stop()

	buf := make([]byte, framesPerBuffer*2)
	for {
		select {
		case <-deviceChanged:
			logger.Info("capture device change detected, resetting engine")
			engine.Reset()
		default:
		}

		if err := stream.Read(); err != nil {
			logger.Warn("reading audio stream", "err", err)
			return
		}
		for i, s := range in {
			buf[i*2] = byte(uint16(s))
			buf[i*2+1] = byte(uint16(s) >> 8)
		}
		for _, fe := range engine.PushBytes(buf) {
			meter.Render(fe)
			writeCSVRow(csvWriter, fe)
		}
	}
}

// watchCaptureDeviceChanges reports sound-subsystem udev events on the
// returned channel; the caller (running single-threaded against engine)
// decides when it's safe to act on one. Errors are logged and non-fatal:
// the demo still runs against a fixed device if udev monitoring isn't
// available (e.g. not running as root, not Linux).
func watchCaptureDeviceChanges(ctx context.Context, logger *log.Logger) <-chan struct{} {
	signal := make(chan struct{}, 1)

	u := udev.Udev{}
	mon := u.NewMonitorFromNetlink("udev")
	if err := mon.FilterAddMatchSubsystem("sound"); err != nil {
		logger.Debug("udev monitor unavailable, skipping hot-plug watch", "err", err)
		return signal
	}
	deviceChan, err := mon.DeviceChan(ctx)
	if err != nil {
		logger.Debug("starting udev monitor", "err", err)
		return signal
	}
	go func() {
		for range deviceChan {
			select {
			case signal <- struct{}{}:
			default:
			}
		}
	}()
	return signal
}

// terminalMeter renders one line per emitted frame to a raw terminal so
// output isn't line-buffered behind the shell.
type terminalMeter struct {
	tty    *term.Term
	logger *log.Logger
}

func newTerminalMeter(logger *log.Logger) *terminalMeter {
	tty, err := term.Open("/dev/tty", term.RawMode)
	if err != nil {
		logger.Debug("no raw tty available, falling back to stdout", "err", err)
		return &terminalMeter{logger: logger}
	}
	return &terminalMeter{tty: tty, logger: logger}
}

func (m *terminalMeter) Render(fe pyin.FrameEstimate) {
	var line string
	if fe.Voiced {
		line = fmt.Sprintf("frame %6d  t=%7.3fs  f0=%8.2fHz  midi=%3d  conf=%.2f\r\n",
			fe.FrameIndex, fe.TimeSec, *fe.F0Hz, *fe.MidiNote, fe.Confidence)
	} else {
		line = fmt.Sprintf("frame %6d  t=%7.3fs  (unvoiced)       conf=%.2f\r\n",
			fe.FrameIndex, fe.TimeSec, fe.Confidence)
	}
	if m.tty != nil {
		_, _ = m.tty.Write([]byte(line))
	} else {
		fmt.Print(line)
	}
}

func (m *terminalMeter) Close() {
	if m.tty != nil {
		_ = m.tty.Restore()
		_ = m.tty.Close()
	}
}
