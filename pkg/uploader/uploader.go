// Package uploader is the client side of the presigned upload flow. Files are
// queued, large ones wait for a confirmation, and each transfer asks the panel
// for a signed url and PUTs the bytes straight to the bucket.
package uploader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"sync"

	"bitwise74/bucket-panel/pkg/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type State string

const (
	Pending              State = "pending"
	AwaitingConfirmation State = "awaiting_confirmation"
	Uploading            State = "uploading"
	Success              State = "success"
	Failed               State = "error"
)

var (
	ErrUnknownItem  = errors.New("unknown upload")
	ErrNotAwaiting  = errors.New("upload is not awaiting confirmation")
	errEmptyPresign = errors.New("presign response has no upload url")
)

// Signer hands out signed upload urls. *Client implements it.
type Signer interface {
	Presign(ctx context.Context, req PresignRequest) (*PresignResponse, error)
}

// File is something that can be uploaded. Open is called once per transfer.
type File struct {
	Name        string
	Size        int64
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// Item is a snapshot of a queued upload
type Item struct {
	ID                   string   `json:"id"`
	FileName             string   `json:"fileName"`
	Size                 int64    `json:"size"`
	Prefix               string   `json:"prefix"`
	MimeType             string   `json:"mimeType"`
	Category             Category `json:"category"`
	Previewable          bool     `json:"previewable"`
	State                State    `json:"state"`
	Progress             int      `json:"progress"`
	ConfirmationRequired bool     `json:"confirmationRequired"`
	ConfirmationMessage  string   `json:"confirmationMessage,omitempty"`
	Key                  string   `json:"key,omitempty"`
	Error                string   `json:"error,omitempty"`
}

func (i Item) Settled() bool {
	return i.State == Success || i.State == Failed
}

type Options struct {
	// Client performs the PUT requests. Defaults to a client without timeout
	// since transfers can be long.
	Client     *http.Client
	Thresholds Thresholds

	// OnProgress runs whenever an item's progress goes up
	OnProgress func(Item)
	// OnSettled runs after every success or error
	OnSettled func(Item)
}

type entry struct {
	item Item
	file File
}

type Uploader struct {
	ctx    context.Context
	signer Signer
	opts   Options

	mu    sync.Mutex
	items map[string]*entry
	order []string
	wg    sync.WaitGroup
}

// New creates an uploader. Transfers stop when ctx is cancelled.
func New(ctx context.Context, signer Signer, opts Options) *Uploader {
	if opts.Client == nil {
		opts.Client = &http.Client{}
	}

	if opts.Thresholds == nil {
		opts.Thresholds = DefaultThresholds()
	}

	return &Uploader{
		ctx:    ctx,
		signer: signer,
		opts:   opts,
		items:  make(map[string]*entry),
	}
}

// confirmation tells whether f needs to be confirmed and why
func (u *Uploader) confirmation(f File) (bool, string) {
	cat := CategoryOf(f.Name)
	threshold := u.opts.Thresholds.For(cat)

	if f.Size < threshold {
		return false, ""
	}

	return true, fmt.Sprintf(
		"This %s is %s and exceeds the automatic upload limit (%s). Confirm to start the upload.",
		labels[cat], util.FormatBytes(f.Size), util.FormatBytes(threshold),
	)
}

// Enqueue adds files to the queue under prefix. Files below their threshold
// start right away, the others wait for Confirm. New items go to the front
// and finished successful ones are dropped.
func (u *Uploader) Enqueue(files []File, prefix string) []Item {
	if len(files) == 0 {
		return nil
	}

	added := make([]*entry, 0, len(files))
	for _, f := range files {
		required, msg := u.confirmation(f)
		cat := CategoryOf(f.Name)

		state := Pending
		if required {
			state = AwaitingConfirmation
		}

		added = append(added, &entry{
			file: f,
			item: Item{
				ID:                   uuid.NewString(),
				FileName:             f.Name,
				Size:                 f.Size,
				Prefix:               prefix,
				MimeType:             f.ContentType,
				Category:             cat,
				Previewable:          cat.Previewable(),
				State:                state,
				ConfirmationRequired: required,
				ConfirmationMessage:  msg,
			},
		})
	}

	u.mu.Lock()
	order := make([]string, 0, len(added)+len(u.order))
	for _, e := range added {
		u.items[e.item.ID] = e
		order = append(order, e.item.ID)
	}
	for _, id := range u.order {
		if u.items[id].item.State == Success {
			delete(u.items, id)
			continue
		}

		order = append(order, id)
	}
	u.order = order

	out := make([]Item, 0, len(added))
	var start []string
	for _, e := range added {
		out = append(out, e.item)
		if e.item.State == Pending {
			start = append(start, e.item.ID)
		}
	}
	u.mu.Unlock()

	for _, id := range start {
		u.start(id)
	}

	return out
}

// Confirm starts an upload that was waiting for confirmation
func (u *Uploader) Confirm(id string) error {
	u.mu.Lock()
	e, ok := u.items[id]
	if !ok {
		u.mu.Unlock()
		return ErrUnknownItem
	}

	if e.item.State != AwaitingConfirmation {
		u.mu.Unlock()
		return ErrNotAwaiting
	}

	e.item.State = Pending
	u.mu.Unlock()

	u.start(id)
	return nil
}

// Items returns a snapshot of the queue, newest first
func (u *Uploader) Items() []Item {
	u.mu.Lock()
	defer u.mu.Unlock()

	out := make([]Item, 0, len(u.order))
	for _, id := range u.order {
		out = append(out, u.items[id].item)
	}

	return out
}

func (u *Uploader) Item(id string) (Item, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()

	e, ok := u.items[id]
	if !ok {
		return Item{}, false
	}

	return e.item, true
}

// Uploading reports whether any transfer is still running
func (u *Uploader) Uploading() bool {
	u.mu.Lock()
	defer u.mu.Unlock()

	return slices.ContainsFunc(u.order, func(id string) bool {
		return u.items[id].item.State == Uploading
	})
}

// Wait blocks until every started upload has settled
func (u *Uploader) Wait() {
	u.wg.Wait()
}

func (u *Uploader) start(id string) {
	u.mu.Lock()
	e := u.items[id]
	if e == nil || e.item.State != Pending {
		u.mu.Unlock()
		return
	}

	e.item.State = Uploading
	e.item.Progress = 0
	e.item.Error = ""
	u.mu.Unlock()

	u.wg.Add(1)
	go func() {
		defer u.wg.Done()

		key, err := u.transfer(e)
		u.settle(id, key, err)
	}()
}

func (u *Uploader) update(id string, fn func(*Item)) Item {
	u.mu.Lock()
	defer u.mu.Unlock()

	e := u.items[id]
	fn(&e.item)

	return e.item
}

func (u *Uploader) settle(id, key string, err error) {
	item := u.update(id, func(i *Item) {
		if err != nil {
			i.State = Failed
			i.Error = err.Error()
			return
		}

		i.State = Success
		i.Progress = 100
		i.Key = key
	})

	if err != nil {
		zap.L().Debug("Upload failed", zap.String("file", item.FileName), zap.Error(err))
	}

	if u.opts.OnSettled != nil {
		u.opts.OnSettled(item)
	}
}

func (u *Uploader) transfer(e *entry) (string, error) {
	id := e.item.ID

	signed, err := u.signer.Presign(u.ctx, PresignRequest{
		FileName:    e.file.Name,
		ContentType: e.file.ContentType,
		Prefix:      e.item.Prefix,
		Size:        e.file.Size,
	})
	if err != nil {
		return "", err
	}

	if signed.UploadURL == "" {
		return "", errEmptyPresign
	}

	body, err := e.file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open %s, %w", e.file.Name, err)
	}
	defer body.Close()

	pr := newProgressReader(body, e.file.Size, func(pct int) {
		item := u.update(id, func(i *Item) {
			i.Progress = max(i.Progress, pct)
		})

		if u.opts.OnProgress != nil {
			u.opts.OnProgress(item)
		}
	})

	method := signed.Method
	if method == "" {
		method = http.MethodPut
	}

	req, err := http.NewRequestWithContext(u.ctx, method, signed.UploadURL, pr)
	if err != nil {
		return "", err
	}

	req.ContentLength = e.file.Size
	for k, v := range signed.Headers {
		if v != "" {
			req.Header.Set(k, v)
		}
	}

	res, err := u.opts.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 400 {
		data, _ := io.ReadAll(io.LimitReader(res.Body, 64<<10))

		msg := strings.TrimSpace(string(data))
		if msg == "" {
			msg = fmt.Sprintf("upload rejected by the bucket with status %d", res.StatusCode)
		}

		return "", errors.New(msg)
	}

	return signed.Key, nil
}
