package cli

import (
	"reflect"

	"github.com/alecthomas/kong"

	"go.hackfix.me/parley/xtime"
)

// TimeoutMapper parses timeout values given as integer milliseconds or
// duration strings.
type TimeoutMapper struct{}

var _ kong.Mapper = (*TimeoutMapper)(nil)

// Decode implements the kong.Mapper interface.
func (TimeoutMapper) Decode(kctx *kong.DecodeContext, target reflect.Value) error {
	var value string
	err := kctx.Scan.PopValueInto("timeout", &value)
	if err != nil {
		return err
	}

	d, err := xtime.ParseTimeout(value)
	if err != nil {
		return err
	}

	target.Set(reflect.ValueOf(d))

	return nil
}
