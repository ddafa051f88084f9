package mailer_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/wneessen/go-mail"

	"github.com/inforum/diagnostico/internal/adapters/mailer"
	"github.com/inforum/diagnostico/internal/domain/notify"
	"github.com/inforum/diagnostico/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func settings() mailer.Settings {
	return mailer.Settings{
		Host: "smtp.test", Port: 587,
		User: "u", Pass: "p",
		From: "Inforum <info@inforumsol.com>",
	}
}

func TestSend(t *testing.T) {
	Convey("Given a sender with a captured transport", t, func() {
		var sent []*mail.Msg
		capture := func(_ context.Context, m *mail.Msg) error {
			sent = append(sent, m)
			return nil
		}
		s := mailer.New(settings(), mailer.WithLogger(logger.Nop()), mailer.WithDeliverFunc(capture))
		msg := notify.NewComposer().Compose(true, "https://example.test")

		Convey("A message is built with both parts and delivered once", func() {
			err := s.Send(context.Background(), "ana@example.com", msg)
			So(err, ShouldBeNil)
			So(sent, ShouldHaveLength, 1)

			var buf bytes.Buffer
			_, err = sent[0].WriteTo(&buf)
			So(err, ShouldBeNil)
			raw := buf.String()
			So(raw, ShouldContainSubstring, "<ana@example.com>")
			So(raw, ShouldContainSubstring, "info@inforumsol.com")
			So(raw, ShouldContainSubstring, "multipart/alternative")
			So(raw, ShouldContainSubstring, "text/html")
		})

		Convey("An invalid recipient is refused before delivery", func() {
			err := s.Send(context.Background(), "not an address", msg)
			So(errors.Is(err, mailer.ErrInvalidAddress), ShouldBeTrue)
			So(sent, ShouldBeEmpty)
		})

		Convey("A transport failure is wrapped", func() {
			failing := mailer.New(settings(), mailer.WithLogger(logger.Nop()),
				mailer.WithDeliverFunc(func(context.Context, *mail.Msg) error { return errors.New("421 try later") }))
			err := failing.Send(context.Background(), "ana@example.com", msg)
			So(errors.Is(err, mailer.ErrSend), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "421")
		})
	})
}

func TestDisabled(t *testing.T) {
	Convey("Given a sender without credentials", t, func() {
		cfg := settings()
		cfg.Pass = ""
		called := false
		s := mailer.New(cfg, mailer.WithLogger(logger.Nop()),
			mailer.WithDeliverFunc(func(context.Context, *mail.Msg) error { called = true; return nil }))

		Convey("It reports disabled and never dials", func() {
			So(s.Enabled(), ShouldBeFalse)
			err := s.Send(context.Background(), "ana@example.com", notify.Message{Subject: "s", Text: "t"})
			So(errors.Is(err, mailer.ErrDisabled), ShouldBeTrue)
			So(called, ShouldBeFalse)
		})
	})
}
