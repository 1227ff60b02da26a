// Package msgview turns messages into render-ready view descriptors.
//
// A View is exactly one of SystemView, ImageView or TextView. Renderers
// should switch on the concrete type; the set is closed.
package msgview

import "time"

// Placeholder texts shown in place of content.
const (
	RecalledText         = "Message recalled"
	ImageUnavailableText = "image unavailable"
	ImageReplyText       = "[Image]"
)

// Kind names a variant.
type Kind int

const (
	KindText Kind = iota
	KindImage
	KindSystem
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindSystem:
		return "system"
	default:
		return "text"
	}
}

// View is a render-ready message.
type View interface {
	MessageID() int64
	Kind() Kind
	isView()
}

// Avatar is either an uploaded image or a first-letter badge.
type Avatar struct {
	URL     string
	Initial string
}

// Image is one resolved image of a message or reply preview.
type Image struct {
	Thumb string
	Full  string
	Name  string
	// Unavailable is set when the resource could not be resolved; the
	// renderer shows ImageUnavailableText for this image only.
	Unavailable bool
}

// ReplyPreview is the quoted block above a reply.
type ReplyPreview struct {
	MessageID int64
	SenderID  string
	Text      string
	IsImage   bool
	Images    []Image
}

// Base carries the fields shared by text and image messages.
type Base struct {
	ID        int64
	Outgoing  bool
	SenderID  string
	Avatar    *Avatar
	Reply     *ReplyPreview
	Recalled  bool
	Read      bool
	Time      time.Time
	TimeLabel string
}

// SystemView is an informational line without sender semantics.
type SystemView struct {
	ID   int64
	Text string
	Time time.Time
}

// ImageView is a message whose body is its images. When Recalled is set the
// images are withheld and RecalledText is shown instead.
type ImageView struct {
	Base
	Images []Image
}

// TextView is the default variant.
type TextView struct {
	Base
	Text string
}

func (v SystemView) MessageID() int64 { return v.ID }
func (v ImageView) MessageID() int64  { return v.ID }
func (v TextView) MessageID() int64   { return v.ID }

func (SystemView) Kind() Kind { return KindSystem }
func (ImageView) Kind() Kind  { return KindImage }
func (TextView) Kind() Kind   { return KindText }

func (SystemView) isView() {}
func (ImageView) isView()  {}
func (TextView) isView()   {}
