package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/abihf/faceguard"
	"github.com/abihf/faceguard/capture"
	"github.com/abihf/faceguard/config"
	"github.com/abihf/faceguard/facerec"
	"github.com/abihf/faceguard/remote"
)

func serve(ctx context.Context, conf *config.Config, log *logrus.Logger) error {
	if isAlreadyRun(conf.PidFile, log) {
		return errors.New("already run")
	}

	detector, closeDetector, err := newDetector(conf, log)
	if err != nil {
		return err
	}
	defer closeDetector()

	opt := faceguard.Option{
		Detector:   detector,
		Thresholds: conf.Thresholds,
		Layout:     conf.Layout(),
		Log:        log,
	}
	if conf.CPUCore != nil {
		opt.PinCPU = true
		opt.CPUCore = *conf.CPUCore
	}
	guard, err := faceguard.New(opt)
	if err != nil {
		return err
	}
	defer guard.Close()

	hub := newHub()
	guard.SetObserver(hub)

	if err := writeLockFile(conf.PidFile); err != nil {
		return errors.Wrap(err, "Can not write pid file")
	}
	defer os.Remove(conf.PidFile)

	os.MkdirAll(filepath.Dir(conf.Socket), 0755)
	os.Remove(conf.Socket)
	ln, err := net.Listen("unix", conf.Socket)
	if err != nil {
		return errors.Wrap(err, "Listen error")
	}
	defer ln.Close()
	os.Chmod(conf.Socket, 0666)

	camOpt, err := cameraOption(conf, log)
	if err != nil {
		return err
	}
	cam := capture.Open(camOpt)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := guard.Run(ctx, cam)
		if err != nil {
			return errors.Wrap(err, "capture failed")
		}
		// the camera ended on its own; take the socket down with it
		if ctx.Err() == nil {
			return errors.New("capture stopped")
		}
		return nil
	})

	h := &handler{hub: hub, layout: guard, log: log}
	g.Go(func() error {
		for {
			c, err := ln.Accept()
			if err != nil {
				if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
					return nil
				}
				return errors.Wrap(err, "Accept error")
			}
			go h.handle(ctx, c)
		}
	})

	g.Go(func() error {
		<-ctx.Done()
		ln.Close()
		return nil
	})

	daemon.SdNotify(false, daemon.SdNotifyReady)
	log.WithFields(logrus.Fields{
		"socket":  conf.Socket,
		"device":  conf.Device,
		"session": guard.ID(),
	}).Info("faceguardd ready")

	err = g.Wait()
	daemon.SdNotify(false, daemon.SdNotifyStopping)

	stats := guard.Stats()
	log.WithFields(logrus.Fields{
		"processed": stats.Processed,
		"skipped":   stats.Skipped,
		"dropped":   stats.Dropped,
		"watchers":  hub.count(),
	}).Info("Shutting down")
	return err
}

func newDetector(conf *config.Config, log *logrus.Logger) (faceguard.Detector, func(), error) {
	switch conf.Detector.Kind {
	case "remote":
		d, err := remote.New(remote.Option{
			URL:     conf.Detector.URL,
			Timeout: conf.Detector.Timeout.Duration,
			Log:     log,
		})
		if err != nil {
			return nil, nil, err
		}
		return d, func() { d.Close() }, nil

	default:
		d, err := facerec.New(conf.Detector.ModelDir)
		if err != nil {
			return nil, nil, err
		}
		return d, d.Close, nil
	}
}

func cameraOption(conf *config.Config, log logrus.FieldLogger) (capture.Option, error) {
	orientation, err := capture.ParseOrientation(conf.Orientation)
	if err != nil {
		return capture.Option{}, err
	}
	return capture.Option{
		Device:        conf.Device,
		Width:         conf.Width,
		Height:        conf.Height,
		Format:        formatOf(conf.Format),
		Orientation:   orientation,
		CheckExposure: conf.CheckExposure,
		Log:           log,
	}, nil
}

func formatOf(s string) capture.Format {
	if s == "jpeg" {
		return capture.JPEG
	}
	return capture.Gray
}

func isAlreadyRun(path string, log logrus.FieldLogger) bool {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return false
	}

	pidStr, err := os.ReadFile(path)
	if err != nil {
		log.WithError(err).Warn("Can not read pid file")
		return false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(pidStr)))
	if err != nil {
		log.WithError(err).Warn("Invalid existing pid file")
		return false
	}
	if pid == os.Getpid() {
		return false
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

func writeLockFile(path string) error {
	os.MkdirAll(filepath.Dir(path), 0755)
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	fmt.Fprintf(f, "%d", os.Getpid())
	return f.Close()
}
