package channel

import (
	"context"

	"github.com/omnigate/omnigate/internal/canonical"
)

// Page is one slice of a paginated listing. TotalCount is the upstream total
// for the query. When FilteredLocally is true the upstream source could not
// apply the requested filter server-side: TotalCount then reflects the
// pre-filter total and the page may hold fewer than the requested page size.
type Page[T any] struct {
	Items           []T  `json:"items"`
	TotalCount      int  `json:"total_count"`
	FilteredLocally bool `json:"filtered_locally,omitempty"`
}

type ContactQuery struct {
	Page         int
	PageSize     int
	SearchQuery  string
	StatusFilter canonical.PresenceStatus
}

type ChatQuery struct {
	Page           int
	PageSize       int
	ChatTypeFilter canonical.ChatType
	Archived       *bool
}

type MessageQuery struct {
	ChatID          string
	Page            int
	PageSize        int
	BeforeMessageID string
}

// Handler is the capability port every channel implementation satisfies.
// Callers depend only on this interface; the concrete handler talks to the
// native client (HTTP bridge service, gateway-protocol session, ...).
type Handler interface {
	// ID returns the unique configured channel identifier.
	ID() string

	// Type returns the channel provider type used for routing.
	Type() Type

	// Instance returns the channel instance name (one live connection each).
	Instance() string

	GetContacts(ctx context.Context, q ContactQuery) (Page[canonical.Contact], error)
	GetChats(ctx context.Context, q ChatQuery) (Page[canonical.Chat], error)
	GetMessages(ctx context.Context, q MessageQuery) (Page[canonical.Message], error)
	GetChannelInfo(ctx context.Context) (canonical.ChannelInfo, error)

	// Send operations return a SendResult; infrastructure failures are folded
	// into the result so a send is always reported, never silently lost.
	SendText(ctx context.Context, recipient, text string) SendResult
	SendMedia(ctx context.Context, recipient, mediaURL, caption string) SendResult
	SendAudio(ctx context.Context, recipient, audioURL string) SendResult
	SendSticker(ctx context.Context, recipient, stickerURL string) SendResult
	SendReaction(ctx context.Context, recipient, messageID, emoji string) SendResult

	// RegisterMessageHandler registers the inbound message callback.
	// The handler is invoked for each incoming normalized canonical.Message.
	RegisterMessageHandler(handler func(ctx context.Context, msg *canonical.Message) error) error
}

// Paginate slices a full result set; page numbers start at 1.
func Paginate[T any](items []T, page, pageSize int) []T {
	if pageSize <= 0 {
		pageSize = 50
	}
	if page <= 0 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start >= len(items) {
		return nil
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
