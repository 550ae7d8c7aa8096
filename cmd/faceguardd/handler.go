package main

import (
	"context"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/abihf/faceguard/face"
	"github.com/abihf/faceguard/protocol"
)

const defaultCheckTimeout = 10 * time.Second

type layoutUpdater interface {
	UpdateLayout(fn func(l *face.Layout))
}

type handler struct {
	hub    *hub
	layout layoutUpdater
	log    logrus.FieldLogger
}

func (h *handler) handle(ctx context.Context, c net.Conn) {
	defer c.Close()
	stop := context.AfterFunc(ctx, func() { c.Close() })
	defer stop()

	r := protocol.NewReader(c)
	for {
		req, err := r.ReadReq()
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				h.log.WithError(err).Warn("Can not read request")
			}
			return
		}

		switch req.Action {
		case "":
			continue

		case protocol.ActionWatch:
			h.watch(ctx, c)
			return

		case protocol.ActionRegion:
			err = h.region(req)
			if err != nil {
				err = protocol.WriteErrorRes(c, err)
			} else {
				err = protocol.WriteSuccessRes(c, nil)
			}

		case protocol.ActionCheck:
			err = h.check(ctx, c, req)

		default:
			err = protocol.WriteErrorRes(c, errors.Errorf("unknown action %q", req.Action))
		}

		if err != nil {
			h.log.WithError(err).Debug("Can not write response")
			return
		}
	}
}

// watch streams events until the client goes away.
func (h *handler) watch(ctx context.Context, c net.Conn) {
	events, unsubscribe := h.hub.subscribe()
	defer unsubscribe()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		io.Copy(io.Discard, c)
		cancel()
	}()

	h.log.Debug("Watcher connected")
	defer h.log.Debug("Watcher disconnected")
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			if err := protocol.WriteEvent(c, ev); err != nil {
				return
			}
		}
	}
}

func (h *handler) region(req *protocol.Req) error {
	region, view, err := protocol.ToRegion(req)
	if err != nil {
		return err
	}
	h.layout.UpdateLayout(func(l *face.Layout) {
		if view != nil {
			l.ViewWidth, l.ViewHeight = view[0], view[1]
		}
		l.Region = region
	})
	h.log.WithField("region", region).Info("Legal region changed")
	return nil
}

// check answers once a correctly framed face is seen or the timeout passes.
func (h *handler) check(ctx context.Context, c net.Conn, req *protocol.Req) error {
	timeout, err := protocol.ToTimeout(req, defaultCheckTimeout)
	if err != nil {
		return protocol.WriteErrorRes(c, err)
	}

	events, unsubscribe := h.hub.subscribe()
	defer unsubscribe()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var last *protocol.Event
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev := <-events:
			if ev.State == face.NoFault {
				return protocol.WriteSuccessRes(c, map[string]string{"seq": strconv.FormatUint(ev.Seq, 10)})
			}
			last = &ev

		case <-timer.C:
			if last == nil {
				return protocol.WriteErrorRes(c, errors.New("no frame processed"))
			}
			return protocol.WriteErrorRes(c, errors.New(last.Description))
		}
	}
}
