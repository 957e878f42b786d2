package draftsim

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// ErrSettleTimeout is returned when no inference result arrives in time.
var ErrSettleTimeout = errors.New("timed out waiting for inference result")

// stream follows the /ws snapshot stream.
type stream struct {
	conn   *websocket.Conn
	frames chan Frame
	errc   chan error

	// seen counts frames per generation. The first frame for a generation is
	// the mutation itself; a later one is the published inference result.
	seen map[uint64]int
}

func dialStream(ctx context.Context, baseURL string) (*stream, error) {
	url := "ws" + strings.TrimPrefix(baseURL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	s := &stream{
		conn:   conn,
		frames: make(chan Frame, 64),
		errc:   make(chan error, 1),
		seen:   make(map[uint64]int),
	}
	go s.readLoop()
	return s, nil
}

func (s *stream) readLoop() {
	defer close(s.frames)
	for {
		var f Frame
		if err := s.conn.ReadJSON(&f); err != nil {
			s.errc <- err
			return
		}
		s.frames <- f
	}
}

// awaitPublished returns the first published draft for generation gen. Frames
// for newer generations mean the run was superseded and end the wait with
// ok=false.
func (s *stream) awaitPublished(ctx context.Context, gen uint64, timeout time.Duration) (Draft, bool, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return Draft{}, false, ctx.Err()
		case <-timer.C:
			return Draft{}, false, fmt.Errorf("%w: generation %d", ErrSettleTimeout, gen)
		case f, ok := <-s.frames:
			if !ok {
				return Draft{}, false, fmt.Errorf("stream closed: %w", <-s.errc)
			}
			g := f.Payload.Generation
			s.seen[g]++
			switch {
			case g > gen:
				return f.Payload, false, nil
			case g == gen && s.seen[g] > 1:
				return f.Payload, true, nil
			}
		}
	}
}

func (s *stream) Close() error {
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return s.conn.Close()
}
