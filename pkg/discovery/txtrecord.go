package discovery

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// TXT record keys.
const (
	// TXTKeyDeviceID is the device identifier key.
	TXTKeyDeviceID = "id"

	// TXTKeyVersion is the application version key.
	TXTKeyVersion = "ver"

	// TXTKeyGroups is the registered group count key.
	TXTKeyGroups = "groups"
)

// TXT record errors.
var (
	// ErrMissingRequired indicates a required TXT key is absent.
	ErrMissingRequired = errors.New("missing required TXT record")

	// ErrInvalidGroupCount indicates an unparsable group count.
	ErrInvalidGroupCount = errors.New("invalid group count")
)

// BuildTXT creates the TXT record strings for a console advertisement.
func BuildTXT(info *Info) []string {
	txt := []string{
		TXTKeyDeviceID + "=" + info.DeviceID,
		TXTKeyGroups + "=" + strconv.Itoa(info.GroupCount),
	}
	if info.Version != "" {
		txt = append(txt, TXTKeyVersion+"="+info.Version)
	}
	return txt
}

// ParseTXT decodes advertisement TXT records back into an Info. The
// instance name and port come from the DNS-SD layer, not the TXT records.
func ParseTXT(records []string) (*Info, error) {
	kv := make(map[string]string, len(records))
	for _, rec := range records {
		key, value, found := strings.Cut(rec, "=")
		if !found {
			continue
		}
		kv[key] = value
	}

	info := &Info{}

	var ok bool
	info.DeviceID, ok = kv[TXTKeyDeviceID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyDeviceID)
	}

	groupsStr, ok := kv[TXTKeyGroups]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyGroups)
	}
	groups, err := strconv.Atoi(groupsStr)
	if err != nil || groups < 0 {
		return nil, ErrInvalidGroupCount
	}
	info.GroupCount = groups

	info.Version = kv[TXTKeyVersion]

	return info, nil
}
