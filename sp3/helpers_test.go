package sp3

import (
	"fmt"
	"strings"
)

// Line builders that reproduce the SP3 column layout.

func epochLine(y, mo, d, h, mi int, sec float64) string {
	return fmt.Sprintf("*  %4d %2d %2d %2d %2d %11.8f", y, mo, d, h, mi, sec)
}

func posLine(id string, x, y, z, clk float64) string {
	return fmt.Sprintf("P%3s%14.6f%14.6f%14.6f%14.6f", id, x, y, z, clk)
}

func velLine(id string, x, y, z float64) string {
	return fmt.Sprintf("V%3s%14.6f%14.6f%14.6f%14.6f", id, x, y, z, 999999.999999)
}

func covLine(sx, sy, sz, xy, xz, yz int) string {
	return fmt.Sprintf("EP  %4d %4d %4d %7d %8d %8d %8d %8d %8d %8d %8d",
		sx, sy, sz, 0, xy, xz, 0, yz, 0, 0, 0)
}

func satListLine(count int, ids ...string) string {
	return fmt.Sprintf("+  %3d   %s", count, padSlots(ids, "  0"))
}

func accuracyLine(acc ...int) string {
	slots := make([]string, len(acc))
	for i, a := range acc {
		slots[i] = fmt.Sprintf("%3d", a)
	}
	return "++       " + padSlots(slots, "  0")
}

func padSlots(slots []string, pad string) string {
	var b strings.Builder
	for i := 0; i < satelliteSlots; i++ {
		if i < len(slots) {
			b.WriteString(slots[i])
		} else {
			b.WriteString(pad)
		}
	}
	return b.String()
}

func timeSystemLines(tag string) []string {
	return []string{
		"%c L  cc " + tag + " ccc cccc cccc cccc cccc ccccc ccccc ccccc ccccc",
		"%c cc cc ccc ccc cccc cccc cccc cccc ccccc ccccc ccccc ccccc",
	}
}

// header returns the header block of a two-satellite file.
func header(timeSystem string) []string {
	lines := []string{
		"#dP2020  1  1  0  0  0.00000000       3 ORBIT IGS14 FIT  GFZ",
		"## 2086 259200.00000000    30.00000000 58849 0.0000000000000",
		satListLine(2, "L09", "L10"),
		accuracyLine(5, 0),
	}
	lines = append(lines, timeSystemLines(timeSystem)...)
	lines = append(lines,
		"%f  1.2500000  1.025000000  0.00000000000  0.000000000000000",
		"%i    0    0    0    0      0      0      0      0         0",
		"/* synthetic test file",
	)
	return lines
}

func join(lines ...[]string) string {
	var all []string
	for _, l := range lines {
		all = append(all, l...)
	}
	return strings.Join(all, "\n") + "\n"
}
