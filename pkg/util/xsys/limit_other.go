//go:build !unix

package xsys

func GetFileLimit() (soft, hard uint64, err error) {
	return 0, 0, ErrUnsupportedPlatform
}

func SetFileLimit(limit uint64) error {
	if err := validateFileLimit(limit); err != nil {
		return err
	}
	return ErrUnsupportedPlatform
}

func EnsureFileLimit(want uint64) (uint64, error) {
	if err := validateFileLimit(want); err != nil {
		return 0, err
	}
	return 0, ErrUnsupportedPlatform
}
