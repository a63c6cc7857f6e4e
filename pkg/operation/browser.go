package operation

import (
	"context"

	"github.com/bench-ai/workbench-go/api/wire"
	"github.com/bench-ai/workbench-go/pkg/command"
)

// BrowserOperation batches browser commands. In batch sessions the Add*
// builders only append; in live sessions each builder also hands the command
// to the running agent and blocks until it completes.
type BrowserOperation struct {
	Operation
	headless bool
}

// NewBrowser creates an empty browser operation bound to a session.
func NewBrowser(bind Binding, headless bool, timeout int) (*BrowserOperation, error) {
	base, err := newOperation(command.KindBrowser, timeout, bind)
	if err != nil {
		return nil, err
	}
	return &BrowserOperation{Operation: base, headless: headless}, nil
}

// Headless reports whether the agent runs the browser without a window.
func (o *BrowserOperation) Headless() bool { return o.headless }

// Settings returns the operation's wire settings map.
func (o *BrowserOperation) Settings() map[string]any {
	settings := o.baseSettings()
	settings["headless"] = o.headless
	return settings
}

// Doc returns the operation's wire document.
func (o *BrowserOperation) Doc() (wire.OperationDoc, error) {
	return o.doc(o.Settings())
}

// AddNavigate opens url in the agent's browser tab.
func (o *BrowserOperation) AddNavigate(ctx context.Context, url string) (*command.Navigate, error) {
	c := command.NewNavigate(url)
	return c, o.process(ctx, c)
}

// AddSleep pauses the agent for the given number of seconds.
func (o *BrowserOperation) AddSleep(ctx context.Context, seconds int) (*command.Sleep, error) {
	c := command.NewSleep(seconds)
	return c, o.process(ctx, c)
}

// AddClick clicks the element located by selector.
func (o *BrowserOperation) AddClick(ctx context.Context, selector, queryType string) (*command.Click, error) {
	c := command.NewClick(selector, queryType)
	return c, o.process(ctx, c)
}

// AddFullPageScreenshot captures the whole page into the named snapshot.
func (o *BrowserOperation) AddFullPageScreenshot(ctx context.Context, quality int, name, snapshotName string) (*command.FullPageScreenshot, error) {
	c := command.NewFullPageScreenshot(quality, name, snapshotName)
	return c, o.process(ctx, c)
}

// AddElementScreenshot captures one element into the named snapshot.
func (o *BrowserOperation) AddElementScreenshot(ctx context.Context, scale int, selector, name, snapshotName string) (*command.ElementScreenshot, error) {
	c := command.NewElementScreenshot(scale, selector, name, snapshotName)
	return c, o.process(ctx, c)
}

// AddCollectNodes walks the DOM under selector and saves the node descriptors.
func (o *BrowserOperation) AddCollectNodes(ctx context.Context, selector, snapshotName string, waitReady, recurse, prepopulate, getStyles bool) (*command.CollectNodes, error) {
	c := command.NewCollectNodes(selector, snapshotName, waitReady, recurse, prepopulate, getStyles)
	return c, o.process(ctx, c)
}

// AddSaveHTML saves the page body into the named snapshot.
func (o *BrowserOperation) AddSaveHTML(ctx context.Context, snapshotName string) (*command.SaveHTML, error) {
	c := command.NewSaveHTML(snapshotName)
	return c, o.process(ctx, c)
}

// AddIterateHTML captures a snapshot series while the page settles. Batch
// only: the iteration bookkeeping has no live counterpart.
func (o *BrowserOperation) AddIterateHTML(cfg command.IterateConfig) (*command.IterateHTML, error) {
	if o.bind.Live {
		return nil, ErrIterateLive
	}
	c := command.NewIterateHTML(cfg)
	return c, o.Append(c)
}

// process appends in batch mode, dispatches through the live channel
// otherwise. Live commands are not recorded in the batch list; they have
// already run.
func (o *BrowserOperation) process(ctx context.Context, c command.Command) error {
	if !o.bind.Live {
		return o.Append(c)
	}
	if b, ok := c.(binder); ok {
		b.Bind(o.bind.SaveRoot, o.bind.SessionID)
	}
	return o.dispatch(ctx, c)
}
