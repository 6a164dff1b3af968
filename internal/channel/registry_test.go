package channel

import (
	"context"
	"testing"

	"github.com/omnigate/omnigate/internal/canonical"
)

type stubHandler struct {
	id       string
	instance string
}

func (s *stubHandler) ID() string       { return s.id }
func (s *stubHandler) Type() Type       { return Discord }
func (s *stubHandler) Instance() string { return s.instance }

func (s *stubHandler) GetContacts(context.Context, ContactQuery) (Page[canonical.Contact], error) {
	return Page[canonical.Contact]{}, nil
}
func (s *stubHandler) GetChats(context.Context, ChatQuery) (Page[canonical.Chat], error) {
	return Page[canonical.Chat]{}, nil
}
func (s *stubHandler) GetMessages(context.Context, MessageQuery) (Page[canonical.Message], error) {
	return Page[canonical.Message]{}, nil
}
func (s *stubHandler) GetChannelInfo(context.Context) (canonical.ChannelInfo, error) {
	return canonical.ChannelInfo{}, nil
}
func (s *stubHandler) SendText(context.Context, string, string) SendResult {
	return OkResult(Discord, "m1")
}
func (s *stubHandler) SendMedia(context.Context, string, string, string) SendResult {
	return OkResult(Discord, "m1")
}
func (s *stubHandler) SendAudio(context.Context, string, string) SendResult {
	return OkResult(Discord, "m1")
}
func (s *stubHandler) SendSticker(context.Context, string, string) SendResult {
	return UnsupportedResult(Discord, "stickers")
}
func (s *stubHandler) SendReaction(context.Context, string, string, string) SendResult {
	return OkResult(Discord, "m1")
}
func (s *stubHandler) RegisterMessageHandler(func(ctx context.Context, msg *canonical.Message) error) error {
	return nil
}

func TestRegistryLifecycle(t *testing.T) {
	r := NewRegistry()

	if err := r.Register(&stubHandler{id: "one", instance: "main"}); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(&stubHandler{id: "two", instance: "alt"}); err != nil {
		t.Fatal(err)
	}

	if r.Len() != 2 {
		t.Fatalf("Len = %d, want 2", r.Len())
	}

	h, err := r.Get("one")
	if err != nil {
		t.Fatal(err)
	}
	if h.Instance() != "main" {
		t.Fatalf("instance = %q, want main", h.Instance())
	}

	if len(r.List()) != 2 {
		t.Fatalf("List returned %d handlers, want 2", len(r.List()))
	}

	r.Unregister("one")
	if _, err := r.Get("one"); err == nil {
		t.Fatal("unregistered handler must not resolve")
	}
	if r.Len() != 1 {
		t.Fatalf("Len after unregister = %d, want 1", r.Len())
	}

	// Unknown and empty IDs are no-ops.
	r.Unregister("missing")
	r.Unregister("")
	if r.Len() != 1 {
		t.Fatalf("Len = %d, want 1", r.Len())
	}
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	if got := Paginate(items, 1, 2); len(got) != 2 || got[0] != 1 {
		t.Fatalf("page 1 = %v", got)
	}
	if got := Paginate(items, 3, 2); len(got) != 1 || got[0] != 5 {
		t.Fatalf("page 3 = %v", got)
	}
	if got := Paginate(items, 4, 2); got != nil {
		t.Fatalf("past-the-end page = %v, want nil", got)
	}
	// Zero values fall back to page 1 and the default page size.
	if got := Paginate(items, 0, 0); len(got) != 5 {
		t.Fatalf("default paging = %v", got)
	}
}
