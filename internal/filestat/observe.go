package filestat

import "os"

// Observe stats path on disk and returns its current Stat. The second
// return value is false if the file does not exist; any other stat error
// is returned as-is.
func Observe(path string) (Stat, bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Stat{}, false, nil
		}
		return Stat{}, false, err
	}
	return Stat{ModTimeNS: info.ModTime().UnixNano(), Size: uint64(info.Size())}, true, nil
}
