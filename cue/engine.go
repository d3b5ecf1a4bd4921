package cue

import (
	"fmt"
	"math"

	"github.com/d5/tengo/v2"
	"github.com/milk9111/musicflow/music"
)

func buildCueEngine(ctrl *music.Controller) *tengo.ImmutableMap {
	values := map[string]tengo.Object{}

	values["play"] = &tengo.UserFunction{Name: "play", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 || len(args) > 2 {
			return nil, tengo.ErrWrongNumArguments
		}
		i, err := resolveTrack(ctrl, args[0])
		if err != nil {
			return nil, err
		}
		stopOthers := len(args) == 2 && !args[1].IsFalsy()
		if err := ctrl.PlayTrack(i, stopOthers); err != nil {
			return nil, err
		}
		return tengo.TrueValue, nil
	}}

	values["crossfade"] = &tengo.UserFunction{Name: "crossfade", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) != 1 {
			return nil, tengo.ErrWrongNumArguments
		}
		i, err := resolveTrack(ctrl, args[0])
		if err != nil {
			return nil, err
		}
		if err := ctrl.PlayTrack(i, true); err != nil {
			return nil, err
		}
		return tengo.TrueValue, nil
	}}

	values["stop"] = &tengo.UserFunction{Name: "stop", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) != 1 {
			return nil, tengo.ErrWrongNumArguments
		}
		i, err := resolveTrack(ctrl, args[0])
		if err != nil {
			return nil, err
		}
		if err := ctrl.StopTrack(i); err != nil {
			return nil, err
		}
		return tengo.TrueValue, nil
	}}

	values["stop_all"] = &tengo.UserFunction{Name: "stop_all", Value: func(args ...tengo.Object) (tengo.Object, error) {
		ctrl.StopAllTracks()
		return tengo.TrueValue, nil
	}}

	values["play_tracks"] = &tengo.UserFunction{Name: "play_tracks", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) != 2 {
			return nil, tengo.ErrWrongNumArguments
		}
		start, err := resolveTracks(ctrl, "first", args[0])
		if err != nil {
			return nil, err
		}
		stop, err := resolveTracks(ctrl, "second", args[1])
		if err != nil {
			return nil, err
		}
		if err := ctrl.PlayTracks(start, stop); err != nil {
			return nil, err
		}
		return tengo.TrueValue, nil
	}}

	values["state"] = &tengo.UserFunction{Name: "state", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) != 1 {
			return nil, tengo.ErrWrongNumArguments
		}
		tr, err := lookup(ctrl, args[0])
		if err != nil {
			return nil, err
		}
		return &tengo.String{Value: tr.State().String()}, nil
	}}

	values["gain"] = &tengo.UserFunction{Name: "gain", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) != 1 {
			return nil, tengo.ErrWrongNumArguments
		}
		tr, err := lookup(ctrl, args[0])
		if err != nil {
			return nil, err
		}
		return &tengo.Float{Value: tr.Gain()}, nil
	}}

	values["track_count"] = &tengo.UserFunction{Name: "track_count", Value: func(args ...tengo.Object) (tengo.Object, error) {
		return &tengo.Int{Value: int64(ctrl.Len())}, nil
	}}

	return &tengo.ImmutableMap{Value: values}
}

// resolveTrack accepts a track index or name.
func resolveTrack(ctrl *music.Controller, o tengo.Object) (int, error) {
	switch v := o.(type) {
	case *tengo.Int:
		if v.Value < 0 || v.Value > math.MaxInt {
			return 0, fmt.Errorf("%w: %d", music.ErrIndexOutOfRange, v.Value)
		}
		return int(v.Value), nil
	case *tengo.String:
		i, ok := ctrl.IndexOf(v.Value)
		if !ok {
			return 0, fmt.Errorf("%w: %q", music.ErrUnknownTrack, v.Value)
		}
		return i, nil
	}
	return 0, tengo.ErrInvalidArgumentType{Name: "track", Expected: "int or string", Found: o.TypeName()}
}

func resolveTracks(ctrl *music.Controller, argName string, o tengo.Object) ([]int, error) {
	var elems []tengo.Object
	switch v := o.(type) {
	case *tengo.Array:
		elems = v.Value
	case *tengo.ImmutableArray:
		elems = v.Value
	default:
		return nil, tengo.ErrInvalidArgumentType{Name: argName, Expected: "array", Found: o.TypeName()}
	}
	out := make([]int, 0, len(elems))
	for _, e := range elems {
		i, err := resolveTrack(ctrl, e)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, nil
}

func lookup(ctrl *music.Controller, o tengo.Object) (*music.Track, error) {
	i, err := resolveTrack(ctrl, o)
	if err != nil {
		return nil, err
	}
	return ctrl.Track(i)
}
