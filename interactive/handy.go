package interactive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/sceneplay/sceneplay/log"
	"github.com/sceneplay/sceneplay/network"
	"github.com/sceneplay/sceneplay/util"
)

const (
	// DefaultAPIURL is the Handy REST API v2 base.
	DefaultAPIURL = "https://www.handyfeeling.com/api/handy/v2"
	// DefaultUploadURL hosts converted scripts for the device to fetch.
	DefaultUploadURL = "https://www.handyfeeling.com/api/sync/upload?local=true"

	modeHSSP          = 1
	serverTimeSamples = 5
	commandQueueSize  = 64

	// closeTimeout bounds how long Close waits for queued commands to reach the device.
	closeTimeout = 3 * time.Second
)

// Handy is a Device backed by the Handy HTTP API. Timing commands go through a
// single worker so they reach the device in call order.
type Handy struct {
	apiURL    string
	uploadURL string
	key       string
	client    *http.Client
	now       func() time.Time
	queue     chan func()
	closeOnce sync.Once
	done      chan struct{}
	stopped   chan struct{}

	// ctx carries every queued command; it is cancelled when Close gives up waiting.
	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	state       State
	initialised bool
	script      string
	playing     bool
	offset      time.Duration
	listeners   map[int]func(State)
	nextID      int
}

var _ Device = (*Handy)(nil)

// NewHandy creates a client for the device identified by connection key.
func NewHandy(apiURL, key string) *Handy {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Handy{
		apiURL:    strings.TrimRight(lo.Ternary(apiURL == "", DefaultAPIURL, apiURL), "/"),
		uploadURL: DefaultUploadURL,
		key:       key,
		client:    network.Client,
		now:       time.Now,
		queue:     make(chan func(), commandQueueSize),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
		state:     lo.Ternary(key == "", Missing, Disconnected),
		listeners: make(map[int]func(State)),
	}
	go h.work()
	return h
}

func (h *Handy) work() {
	defer close(h.stopped)
	for {
		select {
		case <-h.done:
			h.drain()
			return
		case cmd := <-h.queue:
			cmd()
		}
	}
}

// drain runs the commands queued before Close.
func (h *Handy) drain() {
	for {
		select {
		case cmd := <-h.queue:
			cmd()
		default:
			return
		}
	}
}

func (h *Handy) enqueue(name string, cmd func() error) {
	select {
	case <-h.done:
		return
	default:
	}

	select {
	case h.queue <- func() {
		if err := cmd(); err != nil {
			log.Warnf("handy %s: %v", name, err)
		}
	}:
	default:
		log.Warnf("handy %s dropped: command queue full", name)
	}
}

// Close stops accepting commands and waits for the queued ones, such as the final
// stop, to be sent. Requests still in flight after closeTimeout are cancelled.
func (h *Handy) Close() {
	h.closeOnce.Do(func() {
		close(h.done)

		select {
		case <-h.stopped:
		case <-time.After(closeTimeout):
			log.Warn("handy: gave up on queued commands")
		}
		h.cancel()
	})
}

func (h *Handy) setState(s State) {
	h.mu.Lock()
	if h.state == s {
		h.mu.Unlock()
		return
	}
	h.state = s
	listeners := lo.Values(h.listeners)
	h.mu.Unlock()

	for _, fn := range listeners {
		fn(s)
	}
}

func (h *Handy) OnStateChange(fn func(State)) func() {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.listeners[id] = fn
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.listeners, id)
		h.mu.Unlock()
	}
}

func (h *Handy) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *Handy) Initialised() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.initialised
}

func (h *Handy) CurrentScript() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.script
}

// Connect checks the device is online, switches it to synchronized playback and
// estimates the server clock offset.
func (h *Handy) Connect(ctx context.Context) error {
	if h.key == "" {
		h.setState(Missing)
		return ErrNotConnected
	}

	h.setState(Connecting)

	var connected struct {
		Connected bool `json:"connected"`
	}
	if err := h.do(ctx, http.MethodGet, "/connected", nil, &connected); err != nil {
		h.setState(Error)
		return fmt.Errorf("handy connect: %w", err)
	}
	if !connected.Connected {
		h.setState(Disconnected)
		return ErrNotConnected
	}

	if err := h.do(ctx, http.MethodPut, "/mode", map[string]int{"mode": modeHSSP}, nil); err != nil {
		h.setState(Error)
		return fmt.Errorf("handy mode: %w", err)
	}

	h.setState(Syncing)
	offset, err := h.syncServerTime(ctx)
	if err != nil {
		h.setState(Error)
		return fmt.Errorf("handy sync: %w", err)
	}

	h.mu.Lock()
	h.offset = offset
	h.initialised = true
	h.mu.Unlock()

	h.setState(Ready)
	log.Infof("handy connected, server offset %s", offset)
	return nil
}

// syncServerTime averages the offset between the local clock and the device
// server over several round trips, assuming symmetric latency.
func (h *Handy) syncServerTime(ctx context.Context) (time.Duration, error) {
	var total time.Duration
	for i := 0; i < serverTimeSamples; i++ {
		var resp struct {
			ServerTime int64 `json:"serverTime"`
		}
		sent := h.now()
		if err := h.do(ctx, http.MethodGet, "/servertime", nil, &resp); err != nil {
			return 0, err
		}
		received := h.now()
		rtt := received.Sub(sent)
		estimated := time.UnixMilli(resp.ServerTime).Add(rtt / 2)
		total += estimated.Sub(received)
	}
	return total / serverTimeSamples, nil
}

func (h *Handy) serverTime() int64 {
	h.mu.Lock()
	offset := h.offset
	h.mu.Unlock()
	return h.now().Add(offset).UnixMilli()
}

// UploadScript fetches a funscript, converts it to CSV, hosts it and points the
// device at it. The device state is Uploading for the duration.
func (h *Handy) UploadScript(path string) error {
	if !h.Initialised() {
		return ErrNotConnected
	}

	h.setState(Uploading)
	err := h.uploadScript(context.Background(), path)
	if err != nil {
		h.setState(Error)
		return err
	}

	h.mu.Lock()
	h.script = path
	h.mu.Unlock()
	h.setState(Ready)
	return nil
}

func (h *Handy) uploadScript(ctx context.Context, path string) error {
	csv, err := h.fetchScript(ctx, path)
	if err != nil {
		return fmt.Errorf("fetch script: %w", err)
	}

	hosted, err := h.hostScript(ctx, csv)
	if err != nil {
		return fmt.Errorf("host script: %w", err)
	}

	var setup struct {
		Result int `json:"result"`
	}
	if err := h.do(ctx, http.MethodPut, "/hssp/setup", map[string]string{"url": hosted}, &setup); err != nil {
		return fmt.Errorf("hssp setup: %w", err)
	}
	if setup.Result < 0 {
		return fmt.Errorf("hssp setup rejected: result %d", setup.Result)
	}
	return nil
}

// funscript is the on-disk script format: positions (0-100) at millisecond offsets.
type funscript struct {
	Inverted bool `json:"inverted"`
	Actions  []struct {
		At  int64 `json:"at"`
		Pos int   `json:"pos"`
	} `json:"actions"`
}

func (h *Handy) fetchScript(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer util.Ignore(resp.Body.Close)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var script funscript
	if err := json.NewDecoder(resp.Body).Decode(&script); err != nil {
		return nil, fmt.Errorf("decode funscript: %w", err)
	}

	return scriptCSV(script), nil
}

// scriptCSV renders funscript actions in the "at,pos" form the device accepts.
func scriptCSV(script funscript) []byte {
	var b bytes.Buffer
	b.WriteString("#Created by sceneplay\n")
	for _, a := range script.Actions {
		pos := util.Clamp(a.Pos, 0, 100)
		if script.Inverted {
			pos = 100 - pos
		}
		fmt.Fprintf(&b, "%d,%d\n", a.At, pos)
	}
	return b.Bytes()
}

func (h *Handy) hostScript(ctx context.Context, csv []byte) (string, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("syncFile", "script.csv")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(csv); err != nil {
		return "", err
	}
	if err := form.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.uploadURL, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := h.client.Do(req)
	if err != nil {
		return "", err
	}
	defer util.Ignore(resp.Body.Close)

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	var hosted struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&hosted); err != nil {
		return "", err
	}
	if hosted.URL == "" {
		return "", fmt.Errorf("upload returned no url")
	}
	return hosted.URL, nil
}

func (h *Handy) Play(position float64) {
	h.mu.Lock()
	h.playing = true
	h.mu.Unlock()

	h.enqueue("play", func() error {
		return h.do(h.ctx, http.MethodPut, "/hssp/play", map[string]int64{
			"estimatedServerTime": h.serverTime(),
			"startTime":           int64(position * 1000),
		}, nil)
	})
}

func (h *Handy) Pause() {
	h.mu.Lock()
	h.playing = false
	h.mu.Unlock()

	h.enqueue("stop", func() error {
		return h.do(h.ctx, http.MethodPut, "/hssp/stop", nil, nil)
	})
}

func (h *Handy) EnsurePlaying(position float64) {
	h.mu.Lock()
	playing := h.playing
	h.mu.Unlock()

	if playing {
		return
	}
	h.Play(position)
}

func (h *Handy) SetLooping(loop bool) {
	h.enqueue("loop", func() error {
		return h.do(h.ctx, http.MethodPut, "/hssp/loop", map[string]bool{"activated": loop}, nil)
	})
}

// do sends a JSON request to the device API and decodes the response into out.
func (h *Handy) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.apiURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("X-Connection-Key", h.key)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer util.Ignore(resp.Body.Close)

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
