// Command pyin-netd runs the streaming pYIN engine behind a TCP socket,
// advertised on the LAN via mDNS/DNS-SD, emitting newline-delimited JSON
// FrameEstimates to every connected consumer -- a host-language bridge
// that delivers PCM bytes in and consumes notes out over the network
// instead of over stdio.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"os"
	"os/signal"

	"github.com/brutella/dnssd"
	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	pyin "github.com/yinscope/pyin/pitch"
)

func main() {
	var (
		listenAddr = pflag.String("listen", ":9460", "TCP listen address")
		serviceName = pflag.String("name", "pyin-netd", "DNS-SD instance name to advertise")
		sampleRate = pflag.Uint32("rate", 48000, "sample rate in Hz")
		frameSize  = pflag.Int("frame", 2048, "analysis frame size")
		hopSize    = pflag.Int("hop", 256, "hop size")
	)
	pflag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "pyin-netd"})

	cfg := pyin.NewConfig(*sampleRate, *frameSize, *hopSize)

	ln, err := net.Listen("tcp", *listenAddr)
	if err != nil {
		logger.Fatal("listening", "err", err)
	}
	defer ln.Close()

	_, port, err := net.SplitHostPort(ln.Addr().String())
	if err != nil {
		logger.Fatal("parsing listen address", "err", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	advertiseService(ctx, *serviceName, port, logger)

	logger.Info("listening for pcm streams", "addr", ln.Addr())
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
			logger.Warn("accept", "err", err)
			continue
		}
		go serveConn(conn, cfg, logger)
	}
}

// advertiseService publishes a _pyin._tcp service record so LAN clients
// (e.g. an embedded bridge) can discover this instance without a
// hard-coded address.
func advertiseService(ctx context.Context, name, port string, logger *log.Logger) {
	responder, err := dnssd.NewResponder()
	if err != nil {
		logger.Warn("dnssd responder unavailable, skipping advertisement", "err", err)
		return
	}
	cfg := dnssd.Config{
		Name: name,
		Type: "_pyin._tcp",
		Port: mustAtoi(port),
	}
	service, err := dnssd.NewService(cfg)
	if err != nil {
		logger.Warn("building dnssd service", "err", err)
		return
	}
	if _, err := responder.Add(service); err != nil {
		logger.Warn("adding dnssd service", "err", err)
		return
	}
	go func() {
		if err := responder.Respond(ctx); err != nil && ctx.Err() == nil {
			logger.Warn("dnssd responder stopped", "err", err)
		}
	}()
}

func mustAtoi(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
	}
	return n
}

// serveConn treats the connection as a raw I16LE PCM stream in and a
// newline-delimited JSON FrameEstimate stream out.
func serveConn(conn net.Conn, cfg pyin.PyinConfig, logger *log.Logger) {
	defer conn.Close()

	engine, err := pyin.New(cfg, pyin.I16LE, pyin.EngineOptions{})
	if err != nil {
		logger.Error("constructing engine", "err", err)
		return
	}

	enc := json.NewEncoder(conn)
	reader := bufio.NewReaderSize(conn, 4096)
	buf := make([]byte, 4096)

	for {
		n, err := reader.Read(buf)
		if n > 0 {
			for _, fe := range engine.PushBytes(buf[:n]) {
				if encErr := enc.Encode(fe); encErr != nil {
					logger.Warn("encoding frame estimate", "err", encErr)
					return
				}
			}
		}
		if err != nil {
			return
		}
	}
}
