package employees

// ReverseString reverses s rune by rune.
func ReverseString(s string) string {
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}

// RotateLeft moves the first n runes of s to its end. n is taken modulo the
// length of s; negative n rotates right.
func RotateLeft(s string, n int) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	n %= len(runes)
	if n < 0 {
		n += len(runes)
	}
	return string(runes[n:]) + string(runes[:n])
}

// RotateRight moves the last n runes of s to its front.
func RotateRight(s string, n int) string {
	return RotateLeft(s, -n)
}

// runeCounts returns the distinct runes of s in order of first appearance
// together with their occurrence counts.
func runeCounts(s string) ([]rune, map[rune]int) {
	var order []rune
	counts := make(map[rune]int)
	for _, r := range s {
		if counts[r] == 0 {
			order = append(order, r)
		}
		counts[r]++
	}
	return order, counts
}
