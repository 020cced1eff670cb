package flow

import (
	"sync"
	"testing"
)

func TestParseCommandTable(t *testing.T) {
	cases := map[string]Command{
		"/menu":         CmdMenu,
		"/progresso":    CmdProgress,
		"/idioma":       CmdLanguage,
		"/personalizar": CmdPersonalize,
		"/status":       CmdStatus,
		"/proxima":      CmdNextLesson,
		"/aula":         CmdLesson,
		"/ajuda":        CmdHelp,
		"/vocabulario":  CmdVocabulary,
		"/nivel":        CmdLevel,
		"/streak":       CmdStreak,
	}
	for in, want := range cases {
		got, ok := ParseCommand(in)
		if !ok || got != want {
			t.Errorf("ParseCommand(%q) = (%q, %v), want (%q, true)", in, got, ok, want)
		}
	}
}

func TestParseCommandFolding(t *testing.T) {
	for in, want := range map[string]Command{
		"/Próxima":        CmdNextLesson,
		"/MENU":           CmdMenu,
		"  /ajuda  ":      CmdHelp,
		"/nível":          CmdLevel,
		"/menu principal": CmdMenu,
	} {
		got, ok := ParseCommand(in)
		if !ok || got != want {
			t.Errorf("ParseCommand(%q) = (%q, %v), want (%q, true)", in, got, ok, want)
		}
	}
}

func TestParseCommandRejectsNonCommands(t *testing.T) {
	for _, in := range []string{"", "menu", "oi /menu", "/naoexiste", "/"} {
		if cmd, ok := ParseCommand(in); ok {
			t.Errorf("ParseCommand(%q) = (%q, true), want no match", in, cmd)
		}
	}
}

func TestAllowedDuringTest(t *testing.T) {
	allowed := []Command{CmdPersonalize, CmdStatus, CmdHelp}
	for _, cmd := range allowed {
		if !AllowedDuringTest(cmd) {
			t.Errorf("%q should be allowed during a test", cmd)
		}
	}
	blocked := []Command{CmdMenu, CmdLanguage, CmdProgress, CmdNextLesson, CmdVocabulary}
	for _, cmd := range blocked {
		if AllowedDuringTest(cmd) {
			t.Errorf("%q should be blocked during a test", cmd)
		}
	}
}

func TestSessionStoreSerializesPerUser(t *testing.T) {
	sessions := NewSessionStore()
	const workers = 100

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sessions.WithSession("5511999990000", func(s *Session) {
				s.MessageCount++ // read-modify-write must not lose updates
			})
		}()
	}
	wg.Wait()

	s, ok := sessions.Peek("5511999990000")
	if !ok || s.MessageCount != workers {
		t.Errorf("MessageCount = %d, want %d (lost updates)", s.MessageCount, workers)
	}
}

func TestSessionStoreDifferentUsersIndependent(t *testing.T) {
	sessions := NewSessionStore()
	var wg sync.WaitGroup
	phones := []string{"111111", "222222", "333333", "444444"}
	for _, phone := range phones {
		for i := 0; i < 25; i++ {
			wg.Add(1)
			go func(p string) {
				defer wg.Done()
				sessions.WithSession(p, func(s *Session) { s.MessageCount++ })
			}(phone)
		}
	}
	wg.Wait()

	for _, phone := range phones {
		if s, _ := sessions.Peek(phone); s.MessageCount != 25 {
			t.Errorf("%s count = %d, want 25", phone, s.MessageCount)
		}
	}
	if sessions.Len() != len(phones) {
		t.Errorf("Len = %d, want %d", sessions.Len(), len(phones))
	}
}

func TestSessionStoreDelete(t *testing.T) {
	sessions := NewSessionStore()
	sessions.WithSession("111111", func(s *Session) { s.Name = "Ana" })
	sessions.Delete("111111")
	if _, ok := sessions.Peek("111111"); ok {
		t.Error("session survived Delete")
	}
}
