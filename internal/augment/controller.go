package augment

import (
	"context"
	"fmt"
	"weak"

	"golang.org/x/net/html"

	"github.com/alnah/go-xmd/internal/dom"
	"github.com/alnah/go-xmd/internal/render"
	"github.com/alnah/go-xmd/internal/toggle"
)

// Controller binds one control to one text region. It references both
// weakly: the host may drop a post at any time, and effects on a collected
// or detached element are skipped.
type Controller struct {
	a       *Augmentor
	id      string
	region  weak.Pointer[html.Node]
	control weak.Pointer[html.Node]
	machine toggle.Machine
}

func newController(a *Augmentor, id string, region, control *html.Node) *Controller {
	return &Controller{
		a:       a,
		id:      id,
		region:  weak.Make(region),
		control: weak.Make(control),
	}
}

// ID returns the control id.
func (c *Controller) ID() string {
	return c.id
}

// State returns the current toggle state.
func (c *Controller) State() toggle.State {
	return c.machine.State()
}

func (c *Controller) activate() {
	switch effect := c.machine.Fire(toggle.Activate); effect {
	case toggle.EffectBeginRender:
		c.beginRender()
	case toggle.EffectShowRaw:
		c.showRaw()
	default:
		c.a.stats.IgnoredActivations++
		c.a.logger.Debug("activation ignored", "control", c.id, "state", c.machine.State().String())
	}
}

func (c *Controller) beginRender() {
	region := c.liveRegion()
	if region == nil {
		c.complete("", ErrRegionGone)
		return
	}
	c.machine.Capture(dom.InnerHTML(region), dom.TextContent(region))
	c.applyAffordance()

	a := c.a
	a.stats.InFlight++
	text := c.machine.SourceText()

	go func() {
		markup, err := c.render(text)
		if !a.schedule(func() { c.finish(markup, err) }) {
			a.logger.Debug("formatting result dropped, loop closed", "control", c.id)
		}
	}()
}

// render calls the engine off the loop.
func (c *Controller) render(text string) (markup string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("engine panicked: %v", p)
		}
	}()
	ctx, cancel := context.WithTimeout(c.a.ctx, c.a.timeout)
	defer cancel()
	return c.a.engine.Render(ctx, text)
}

// finish applies a formatting result on the loop.
func (c *Controller) finish(markup string, err error) {
	c.a.stats.InFlight--
	c.complete(markup, err)
}

func (c *Controller) complete(markup string, err error) {
	a := c.a
	if err == nil {
		err = c.writeFormatted(markup)
	}
	if err != nil {
		if c.machine.Fire(toggle.EngineFailed) == toggle.EffectResetControl {
			a.stats.RenderFailures++
			a.logger.Warn("formatting failed", "control", c.id, "error", err)
			c.applyAffordance()
		}
		return
	}
	if c.machine.Fire(toggle.EngineSucceeded) == toggle.EffectShowFormatted {
		a.stats.Formatted++
		c.applyAffordance()
	}
}

// writeFormatted replaces the region content. A detached region is left
// alone; the result is late and nobody can see it.
func (c *Controller) writeFormatted(markup string) error {
	region := c.liveRegion()
	if region == nil {
		c.a.logger.Debug("formatting result for detached post", "control", c.id)
		return nil
	}
	if err := c.a.doc.SetInnerHTML(region, markup); err != nil {
		return err
	}
	return c.a.doc.AddClass(region, render.FormattedClass)
}

func (c *Controller) showRaw() {
	if region := c.liveRegion(); region != nil {
		if err := c.a.doc.SetInnerHTML(region, c.machine.OriginalMarkup()); err != nil {
			c.a.logger.Warn("restoring post failed", "control", c.id, "error", err)
		}
		_ = c.a.doc.RemoveClass(region, render.FormattedClass)
	}
	c.a.stats.Restored++
	c.applyAffordance()
}

// liveRegion returns the region if it still exists and is in the document.
func (c *Controller) liveRegion() *html.Node {
	region := c.region.Value()
	if region == nil || !c.a.doc.Contains(region) {
		return nil
	}
	return region
}

func (c *Controller) applyAffordance() {
	control := c.control.Value()
	if control == nil {
		return
	}
	if err := setAffordance(c.a.doc, control, c.machine.State()); err != nil {
		c.a.logger.Debug("updating control failed", "control", c.id, "error", err)
	}
}
