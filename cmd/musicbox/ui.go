package main

import (
	"image/color"

	"golang.org/x/image/font/basicfont"

	"github.com/ebitenui/ebitenui"
	imageui "github.com/ebitenui/ebitenui/image"
	"github.com/ebitenui/ebitenui/widget"
	ebtext "github.com/hajimehoshi/ebiten/v2/text/v2"
)

// NewTrackPanel builds a row of Solo/Layer/Stop buttons per track, followed
// by one button per cue and the global commands. Gain and state are drawn by
// the debug overlay, so the panel only changes when tracks or cues do.
func NewTrackPanel(g *Game) *ebitenui.UI {
	panelImg := imageui.NewNineSliceColor(color.NRGBA{R: 0x10, G: 0x10, B: 0x18, A: 220})
	btnImg := &widget.ButtonImage{
		Idle:    imageui.NewNineSliceColor(color.NRGBA{R: 0x33, G: 0x33, B: 0x44, A: 255}),
		Hover:   imageui.NewNineSliceColor(color.NRGBA{R: 0x44, G: 0x44, B: 0x5a, A: 255}),
		Pressed: imageui.NewNineSliceColor(color.NRGBA{R: 0x22, G: 0x22, B: 0x2e, A: 255}),
	}

	goFace := ebtext.NewGoXFace(basicfont.Face7x13)
	var face ebtext.Face = goFace

	white := color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	btnTextColor := &widget.ButtonTextColor{Idle: white}

	button := func(label string, onClick func()) *widget.Button {
		return widget.NewButton(
			widget.ButtonOpts.Image(btnImg),
			widget.ButtonOpts.Text(label, &face, btnTextColor),
			widget.ButtonOpts.WidgetOpts(widget.WidgetOpts.MinSize(72, 24)),
			widget.ButtonOpts.ClickedHandler(func(args *widget.ButtonClickedEventArgs) {
				onClick()
			}),
		)
	}
	row := func() *widget.Container {
		return widget.NewContainer(
			widget.ContainerOpts.Layout(widget.NewRowLayout(
				widget.RowLayoutOpts.Direction(widget.DirectionHorizontal),
				widget.RowLayoutOpts.Spacing(6),
			)),
		)
	}
	label := func(s string, minWidth int) *widget.Text {
		return widget.NewText(
			widget.TextOpts.Text(s, &face, white),
			widget.TextOpts.WidgetOpts(widget.WidgetOpts.MinSize(minWidth, 0)),
		)
	}

	panel := widget.NewContainer(
		widget.ContainerOpts.BackgroundImage(panelImg),
		widget.ContainerOpts.Layout(widget.NewRowLayout(
			widget.RowLayoutOpts.Direction(widget.DirectionVertical),
			widget.RowLayoutOpts.Spacing(6),
			widget.RowLayoutOpts.Padding(&widget.Insets{Top: 12, Bottom: 12, Left: 16, Right: 16}),
		)),
		widget.ContainerOpts.WidgetOpts(
			widget.WidgetOpts.LayoutData(widget.AnchorLayoutData{HorizontalPosition: widget.AnchorLayoutPositionStart, VerticalPosition: widget.AnchorLayoutPositionStart}),
		),
	)

	for i, tr := range g.ctrl.Tracks() {
		idx := i
		r := row()
		r.AddChild(label(tr.Name(), 120))
		r.AddChild(button("Solo", func() { g.report(g.ctrl.PlayTrack(idx, true)) }))
		r.AddChild(button("Layer", func() { g.report(g.ctrl.PlayTrack(idx, false)) }))
		r.AddChild(button("Stop", func() { g.report(g.ctrl.StopTrack(idx)) }))
		panel.AddChild(r)
	}

	if g.cues != nil && len(g.cues.Cues()) > 0 {
		r := row()
		r.AddChild(label("cues", 120))
		for _, name := range g.cues.Cues() {
			cueName := name
			r.AddChild(button(cueName, func() { g.fireCue(cueName) }))
		}
		panel.AddChild(r)
	}

	global := row()
	global.AddChild(label("all", 120))
	global.AddChild(button("Stop all", func() { g.ctrl.StopAllTracks() }))
	global.AddChild(button("Next mode", func() { g.report(g.setMode((g.ctrl.Config().Mode + 1) % 3)) }))
	global.AddChild(button("Copy state", g.copySnapshot))
	panel.AddChild(global)

	root := widget.NewContainer(
		widget.ContainerOpts.Layout(widget.NewAnchorLayout()),
	)
	root.AddChild(panel)

	return &ebitenui.UI{Container: root}
}
