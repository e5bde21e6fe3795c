// Copyright (c) 2016-2017 Daniel Oaks <daniel@danieloaks.net>
// released under the MIT license

package utils

import "strings"

// SafeErrorParam checks that a parameter can be passed as a non-trailing
// parameter of a numeric reply, and returns "*" if it can't.
func SafeErrorParam(param string) string {
	if param == "" || param[0] == ':' || strings.IndexByte(param, ' ') != -1 {
		return "*"
	}
	return param
}
