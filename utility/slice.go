package utility

// Map returns a new slice holding f applied to every element of input.
func Map[A any, B any](input []A, f func(A) B) []B {
	output := make([]B, len(input))
	for i, v := range input {
		output[i] = f(v)
	}
	return output
}

// Filter returns the elements of input for which keep returns true, in order.
func Filter[T any](input []T, keep func(T) bool) []T {
	output := make([]T, 0, len(input))
	for _, v := range input {
		if keep(v) {
			output = append(output, v)
		}
	}
	return output
}

// Window returns at most limit elements of input starting at offset.
// A negative limit means no limit. Out of range offsets yield an empty slice.
func Window[T any](input []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(input) {
		return []T{}
	}

	end := len(input)
	if limit >= 0 && offset+limit < end {
		end = offset + limit
	}

	return input[offset:end]
}
