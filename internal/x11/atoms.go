package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xprop"
)

type atoms struct {
	wmProtocols xproto.Atom
	wmDelete    xproto.Atom
	wmTakeFocus xproto.Atom
	wmState     xproto.Atom
}

// supportedHints is what the manager advertises in _NET_SUPPORTED.
var supportedHints = []string{
	"_NET_SUPPORTED",
	"_NET_SUPPORTING_WM_CHECK",
	"_NET_WM_NAME",
	"_NET_ACTIVE_WINDOW",
	"_NET_CLIENT_LIST",
	"_NET_WM_STATE",
	"_NET_WM_STATE_FULLSCREEN",
}

func internAtoms(X *xgbutil.XUtil) (atoms, error) {
	var a atoms
	for _, entry := range []struct {
		name string
		dst  *xproto.Atom
	}{
		{"WM_PROTOCOLS", &a.wmProtocols},
		{"WM_DELETE_WINDOW", &a.wmDelete},
		{"WM_TAKE_FOCUS", &a.wmTakeFocus},
		{"WM_STATE", &a.wmState},
	} {
		atom, err := xprop.Atm(X, entry.name)
		if err != nil {
			return a, fmt.Errorf("intern atom %s: %w", entry.name, err)
		}
		*entry.dst = atom
	}
	return a, nil
}
