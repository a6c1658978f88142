// Command ntrip-fetch connects to an NTRIP broadcaster or a raw DGPS/IP
// stream, drives the connection state machine to completion, and prints
// every RTCM frame and sourcetable/connection transition it observes.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/bramburn/ntripcore/internal/config"
	"github.com/bramburn/ntripcore/internal/device"
	"github.com/bramburn/ntripcore/internal/dgpsip"
	"github.com/bramburn/ntripcore/internal/fix"
	"github.com/bramburn/ntripcore/internal/logging"
	"github.com/bramburn/ntripcore/internal/ntripclient"
	"github.com/bramburn/ntripcore/internal/ntripuri"
	"github.com/bramburn/ntripcore/internal/reporter"
	"github.com/bramburn/ntripcore/internal/rtcmfeed"
)

func main() {
	app := &cli.App{
		Name:      "ntrip-fetch",
		Usage:     "fetch RTCM corrections from an NTRIP broadcaster or a raw DGPS/IP stream",
		UsageText: "ntrip-fetch [options] <ntrip://... | dgpsip://... | host[:port]>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "optional YAML config overlay"},
			&cli.BoolFlag{Name: "strict", Usage: "reject unrecognized URI schemes instead of falling back to dgpsip"},
			&cli.StringFlag{Name: "serial-device", Usage: "serial port the receiver's own fix stream is read from"},
			&cli.IntFlag{Name: "serial-baud", Value: 38400},
			&cli.StringFlag{Name: "log-level", Value: "info", Usage: "error, warn, info, debug, or trace"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// mergeFlags overlays any explicitly-set CLI flags onto cfg, leaving
// config-file/default values in place for flags the user didn't pass.
func mergeFlags(cfg config.Config, c *cli.Context) config.Config {
	if c.NArg() > 0 {
		cfg.ServiceURI = c.Args().Get(0)
	}
	if c.IsSet("strict") {
		cfg.StrictDGNSS = c.Bool("strict")
	}
	if c.IsSet("serial-device") {
		cfg.SerialDevice = c.String("serial-device")
	}
	if c.IsSet("serial-baud") {
		cfg.SerialBaud = c.Int("serial-baud")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	return cfg
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	cfg = mergeFlags(cfg, c)
	if err := config.Validate(cfg); err != nil {
		return err
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := logging.New(os.Stderr, level, "ntrip-fetch")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	scheme, err := ntripuri.Dispatch(cfg.ServiceURI, cfg.StrictDGNSS)
	if err != nil {
		return err
	}
	if scheme == ntripuri.NTRIP && !cfg.NTRIPEnabled {
		return errors.Errorf("ntrip-fetch: NTRIP support disabled (ntrip_enabled=false), refusing %q", cfg.ServiceURI)
	}

	var rec *device.Record
	if cfg.SerialDevice != "" {
		rec = device.NewRecord(device.NewGNSSSerialPort())
		if err := rec.Connect(cfg.SerialDevice, cfg.SerialBaud); err != nil {
			logger.Warn("serial device unavailable: %v", err)
			rec = nil
		} else if err := rec.Monitor(200 * time.Millisecond); err != nil {
			logger.Warn("serial monitor failed to start: %v", err)
		}
	}

	switch scheme {
	case ntripuri.NTRIP:
		return runNTRIP(ctx, logger, cfg, rec)
	default:
		return runDGPSIP(ctx, logger, cfg)
	}
}

func runNTRIP(ctx context.Context, logger logging.Logger, cfg config.Config, rec *device.Record) error {
	uri, err := ntripuri.ParseNTRIP(ntripuri.Remainder(cfg.ServiceURI))
	if err != nil {
		return err
	}

	conn := ntripclient.New(ntripclient.NewDialer(), uri)
	clog := logger.WithField("session", conn.SessionID)

	for conn.State != ntripclient.StateEstablished {
		if err := conn.Open(); err != nil {
			return err
		}
		clog.Spin("state is now %s", conn.State)
		if conn.State == ntripclient.StateErr {
			return fmt.Errorf("connection failed in state %s", conn.State)
		}
		time.Sleep(50 * time.Millisecond)
	}
	clog.Warn("established stream for mountpoint %s", conn.Mountpoint)

	tracker := fix.NewTracker()
	rep := reporter.New()
	if rec != nil {
		tracker = rec.Tracker()
	}

	go func() {
		sink := rtcmfeed.NewSink(conn.Reader(), func(frame []byte) {
			clog.Data("rtcm message %d (%d bytes)", rtcmfeed.MessageType(frame), len(frame))
		})
		if err := sink.Run(); err != nil {
			clog.Error("rtcm stream ended: %v", err)
		}
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return conn.Close()
		case <-ticker.C:
			if !conn.SocketOpen() {
				return nil
			}
			pos, ok := tracker.Current()
			if !ok {
				continue
			}
			sent, err := rep.Report(conn.Stream, tracker.Count(), conn.SocketOpen(), conn.Writer(), pos)
			if err != nil {
				clog.Warn("position report failed: %v", err)
			} else if sent {
				clog.IO("sent position report #%d", rep.Count())
			}
		}
	}
}

func runDGPSIP(ctx context.Context, logger logging.Logger, cfg config.Config) error {
	host, port, err := net.SplitHostPort(ntripuri.Remainder(cfg.ServiceURI))
	if err != nil {
		host = ntripuri.Remainder(cfg.ServiceURI)
		port = ""
	}

	conn, err := dgpsip.Open(host, port)
	if err != nil {
		return err
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	logger.Warn("reading raw DGPS/IP stream from %s:%s", host, port)
	sink := rtcmfeed.NewSink(conn, func(frame []byte) {
		logger.Data("rtcm message %d (%d bytes)", rtcmfeed.MessageType(frame), len(frame))
	})
	return sink.Run()
}
