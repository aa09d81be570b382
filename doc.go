// Package xmd augments a live social feed with per-post markdown rendering.
//
// An Extension watches a document for posts arriving in the feed, attaches a
// toggle control to each post exactly once, and switches a post between its
// original text and a formatted rendering when the control is activated.
//
// # Quick Start
//
//	doc, err := xmd.ParseDocument(file)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ext, err := xmd.New(doc, xmd.WithDebounce(50*time.Millisecond))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	go ext.Run(ctx)
//	<-ext.Ready()
//
//	controls, _ := ext.Controls(ctx)
//	_ = ext.Activate(ctx, controls[0])
//
// # Threading
//
// The document belongs to the Extension's event loop while Run is active.
// Never touch it directly from another goroutine: use Update to mutate it
// the way the host page would, and the other Extension methods to read
// state. Formatting happens off the loop and its result is applied on it.
//
// # Pipeline
//
//  1. Mutation watching: additions under <body> that look like posts
//     restart a debounce timer.
//  2. Scanning: once the feed is quiet, every post in the document is
//     visited.
//  3. Augmenting: a post with a text region and an action bar gets a
//     control, and is remembered by identity so it is never augmented twice.
//  4. Toggling: Raw, Loading, Formatted and Error states per post, with the
//     original markup restored on the way back to Raw.
package xmd
