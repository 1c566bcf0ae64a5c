package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

func TestPermissionGate_GrantIsCached(t *testing.T) {
	p := &stubPrompter{grant: true}
	g := NewPermissionGate(p, zerolog.Nop())

	for i := 0; i < 3; i++ {
		ok, err := g.RequestPermission(context.Background())
		if err != nil || !ok {
			t.Fatalf("call %d: ok=%v err=%v", i, ok, err)
		}
	}
	if p.calls != 1 {
		t.Errorf("expected one prompt, got %d", p.calls)
	}
	if !g.Granted() {
		t.Error("Granted() should report the cached grant")
	}
}

func TestPermissionGate_DenialPromptsAgain(t *testing.T) {
	p := &stubPrompter{grant: false}
	g := NewPermissionGate(p, zerolog.Nop())

	ok, err := g.RequestPermission(context.Background())
	if err != nil || ok {
		t.Fatalf("expected denial, got ok=%v err=%v", ok, err)
	}

	p.grant = true
	ok, _ = g.RequestPermission(context.Background())
	if !ok {
		t.Fatal("expected grant on second prompt")
	}
	if p.calls != 2 {
		t.Errorf("expected two prompts, got %d", p.calls)
	}
}

func TestPermissionGate_PromptError(t *testing.T) {
	cause := errors.New("prompt unavailable")
	g := NewPermissionGate(&stubPrompter{err: cause}, zerolog.Nop())

	ok, err := g.RequestPermission(context.Background())
	if ok || !errors.Is(err, cause) {
		t.Fatalf("expected wrapped prompt error, got ok=%v err=%v", ok, err)
	}
	if g.Granted() {
		t.Error("a failed prompt must not grant")
	}
}

func TestPermissionGate_Revoke(t *testing.T) {
	p := &stubPrompter{grant: true}
	g := NewPermissionGate(p, zerolog.Nop())
	_, _ = g.RequestPermission(context.Background())

	g.Revoke()

	if g.Granted() {
		t.Fatal("grant should be dropped")
	}
	_, _ = g.RequestPermission(context.Background())
	if p.calls != 2 {
		t.Errorf("expected a new prompt after revoke, got %d prompts", p.calls)
	}
}

func TestPermissionGate_ConcurrentRequestsPromptOnce(t *testing.T) {
	p := &stubPrompter{grant: true}
	g := NewPermissionGate(p, zerolog.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = g.RequestPermission(context.Background())
		}()
	}
	wg.Wait()

	if p.calls != 1 {
		t.Errorf("expected one prompt, got %d", p.calls)
	}
}

func TestStaticPrompter(t *testing.T) {
	ok, err := StaticPrompter{Grant: true}.Prompt(context.Background())
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	ok, _ = StaticPrompter{}.Prompt(context.Background())
	if ok {
		t.Error("zero value must deny")
	}
}
