//go:build !libpostal

package external

// Available libpostal đã được biên dịch kèm
func Available() bool { return false }

// Parse luôn trả về ErrUnavailable khi build không có tag libpostal
func Parse(string) (Components, error) {
	return Components{}, ErrUnavailable
}
