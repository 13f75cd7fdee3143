//go:build unix

package out

import (
	"os"
	"os/user"
	"strconv"
	"syscall"
)

func ownership(info os.FileInfo) (owner, group string) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return "", ""
	}
	owner = strconv.FormatUint(uint64(st.Uid), 10)
	group = strconv.FormatUint(uint64(st.Gid), 10)
	if u, err := user.LookupId(owner); err == nil {
		owner = u.Username
	}
	if g, err := user.LookupGroupId(group); err == nil {
		group = g.Name
	}
	return owner, group
}
