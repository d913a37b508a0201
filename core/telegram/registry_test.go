package telegram

import (
	"testing"

	tele "gopkg.in/telebot.v4"

	"github.com/aifit/coachbot/core/telegram/commands"
)

func noopHandler(tele.Context) error { return nil }

func TestRegisterCommandValidation(t *testing.T) {
	reg := NewRegistry()

	reg.RegisterCommand("/ok", commands.Command{Handler: noopHandler, Description: "ok"})
	reg.RegisterCommand("/nodesc", commands.Command{Handler: noopHandler})
	reg.RegisterCommand("noslash", commands.Command{Handler: noopHandler, Description: "x"})
	reg.RegisterCommand("/nohandler", commands.Command{Description: "x"})

	if _, ok := reg.Commands()["/ok"]; !ok {
		t.Fatalf("valid command not registered")
	}
	for _, name := range []string{"/nodesc", "noslash", "/nohandler"} {
		if _, ok := reg.Commands()[name]; ok {
			t.Errorf("invalid command %q was registered", name)
		}
	}

	reg.RegisterCommand("/ok", commands.Command{Handler: noopHandler, Description: "other"})
	if got := reg.Commands()["/ok"].Description; got != "ok" {
		t.Errorf("duplicate registration overwrote command: %q", got)
	}
}

func TestListCommandsVisibleOnly(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/start", commands.Command{Handler: noopHandler, Description: "start"})
	reg.RegisterCommand("/admin", commands.Command{Handler: noopHandler, Description: "admin", AdminOnly: true})
	reg.RegisterCommand("/ghost", commands.Command{Handler: noopHandler, Description: "ghost", Hidden: true})

	visible := reg.ListCommands(true)
	if len(visible) != 1 || visible[0].Text != "/start" {
		t.Fatalf("visible menu = %v, want only /start", visible)
	}

	all := reg.ListCommands(false)
	if len(all) != 3 {
		t.Fatalf("full list has %d commands, want 3", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Text > all[i].Text {
			t.Fatalf("command list not sorted: %v", all)
		}
	}
}

func TestRegisterCallbackErrors(t *testing.T) {
	reg := NewRegistry()

	if err := reg.RegisterCallback("act", noopHandler); err != nil {
		t.Fatalf("register callback: %v", err)
	}
	if err := reg.RegisterCallback("act", noopHandler); err == nil {
		t.Error("duplicate callback registration did not fail")
	}
	if err := reg.RegisterCallback("", noopHandler); err == nil {
		t.Error("empty callback key did not fail")
	}
	if err := reg.RegisterCallback("other", nil); err == nil {
		t.Error("nil callback handler did not fail")
	}
}
