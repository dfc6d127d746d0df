package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/signalsfoundry/sp3-orbit-converter/internal/config"
	"github.com/signalsfoundry/sp3-orbit-converter/internal/store"
	"github.com/signalsfoundry/sp3-orbit-converter/sp3"
)

func epochLine(minute int) string {
	return fmt.Sprintf("*  %4d %2d %2d %2d %2d %11.8f", 2020, 1, 1, 0, minute, 0.0)
}

func posLine(id string, x float64) string {
	return fmt.Sprintf("P%3s%14.6f%14.6f%14.6f%14.6f", id, x, 0.0, 0.0, 10.0)
}

func velLine(id string, vy float64) string {
	return fmt.Sprintf("V%3s%14.6f%14.6f%14.6f%14.6f", id, 0.0, vy, 0.0, 999999.999999)
}

// sampleSP3 has three epochs of L09 and L10; L09 is flagged in the header.
func sampleSP3(firstMinute int) string {
	lines := []string{
		"#dP2020  1  1  0  0  0.00000000       3 ORBIT IGS14 FIT  GFZ",
		"+    2   L09L10  0  0  0  0  0  0  0  0  0  0  0  0  0  0  0",
		"++         5  0  0  0  0  0  0  0  0  0  0  0  0  0  0  0  0",
		"%c L  cc GPS ccc cccc cccc cccc cccc ccccc ccccc ccccc ccccc",
		"%c cc cc ccc ccc cccc cccc cccc cccc ccccc ccccc ccccc ccccc",
	}
	for i := 0; i < 3; i++ {
		lines = append(lines,
			epochLine(firstMinute+i),
			posLine("L09", 7000+float64(i)),
			velLine("L09", 75000),
			posLine("L10", 7100+float64(i)),
		)
	}
	lines = append(lines, "EOF")
	return strings.Join(lines, "\n") + "\n"
}

func writeInput(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestConvertWritesDetectedSatellite(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "a.sp3", sampleSP3(0))
	orbitPath := filepath.Join(dir, "orbit.db")
	clockPath := filepath.Join(dir, "clock.db")

	stdout, _, err := execute(t, "convert", "--orbit", orbitPath, "--clock", clockPath, in)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if !strings.Contains(stdout, "orbit\tL09\t3 epochs") {
		t.Fatalf("stdout = %q", stdout)
	}

	orbit, err := store.ReadOrbit(context.Background(), orbitPath)
	if err != nil {
		t.Fatalf("ReadOrbit: %v", err)
	}
	if len(orbit) != 3 || orbit[0].Position.X != 7e6 || !orbit[0].HasVelocity() {
		t.Fatalf("orbit = %+v", orbit)
	}
	clock, err := store.ReadClock(context.Background(), clockPath)
	if err != nil {
		t.Fatalf("ReadClock: %v", err)
	}
	if len(clock) != 3 {
		t.Fatalf("clock rows = %d, want 3", len(clock))
	}
}

func TestConvertAllSatellitesSuffixesOutputs(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "a.sp3", sampleSP3(0))

	_, _, err := execute(t, "convert", "--satellite", "<all>", "--orbit", filepath.Join(dir, "orbit.db"), in)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	for _, name := range []string{"orbit.L09.db", "orbit.L10.db"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("%s not written: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "orbit.db")); !os.IsNotExist(err) {
		t.Fatalf("unsuffixed orbit.db should not be written")
	}
}

func TestConvertAbortKeepsEarlierFiles(t *testing.T) {
	dir := t.TempDir()
	first := writeInput(t, dir, "a.sp3", sampleSP3(0))
	broken := writeInput(t, dir, "b.sp3", epochLine(10)+"\n"+velLine("L09", 75000)+"\n")
	third := writeInput(t, dir, "c.sp3", sampleSP3(20))
	orbitPath := filepath.Join(dir, "orbit.db")

	_, _, err := execute(t, "convert", "--orbit", orbitPath, first, broken, third)
	if !errors.Is(err, ErrAborted) || !errors.Is(err, sp3.ErrVelocityWithoutPosition) {
		t.Fatalf("error = %v, want aborted run", err)
	}
	orbit, err := store.ReadOrbit(context.Background(), orbitPath)
	if err != nil {
		t.Fatalf("ReadOrbit: %v", err)
	}
	if len(orbit) != 3 {
		t.Fatalf("orbit rows = %d, want the 3 epochs of the first file", len(orbit))
	}
}

func TestConvertMissingInputAborts(t *testing.T) {
	dir := t.TempDir()
	_, _, err := execute(t, "convert", "--orbit", filepath.Join(dir, "orbit.db"), filepath.Join(dir, "missing.sp3"))
	if !errors.Is(err, sp3.ErrUnreadableInput) {
		t.Fatalf("error = %v, want ErrUnreadableInput", err)
	}
}

func TestConvertRequiresOrbitOutput(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "a.sp3", sampleSP3(0))
	if _, _, err := execute(t, "convert", in); !errors.Is(err, config.ErrNoOrbitOutput) {
		t.Fatalf("error = %v, want ErrNoOrbitOutput", err)
	}
}

func TestFlagsOverrideConfigFile(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "a.sp3", sampleSP3(0))
	cfgPath := writeInput(t, dir, "sp3conv.yaml", fmt.Sprintf(`
inputs: [%q]
satellite: L10
output:
  orbit: %q
frame:
  earth_rotation: gmst
logging:
  level: warn
`, in, filepath.Join(dir, "from-config.db")))

	override := filepath.Join(dir, "from-flag.db")
	stdout, _, err := execute(t, "convert", "--config", cfgPath, "--orbit", override)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if !strings.Contains(stdout, "orbit\tL10\t3 epochs\t"+override) {
		t.Fatalf("stdout = %q, want L10 written to the flag path", stdout)
	}
	orbit, err := store.ReadOrbit(context.Background(), override)
	if err != nil {
		t.Fatalf("ReadOrbit: %v", err)
	}
	if len(orbit) != 3 || orbit[0].Position.X == 7.1e6 {
		t.Fatalf("orbit = %+v, want 3 rotated epochs", orbit)
	}
}

func TestConvertWritesMetricsTextfile(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "a.sp3", sampleSP3(0))
	prom := filepath.Join(dir, "sp3conv.prom")

	_, _, err := execute(t, "convert", "--orbit", filepath.Join(dir, "orbit.db"), "--metrics-textfile", prom, in)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	data, err := os.ReadFile(prom)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	for _, want := range []string{`sp3_files_total{status="ok"} 1`, `sp3_outputs_written_total{kind="orbit"} 1`, "sp3_satellites 2"} {
		if !strings.Contains(string(data), want) {
			t.Fatalf("metrics missing %q:\n%s", want, data)
		}
	}
}

func TestInspectPrintsCountsAndChart(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "a.sp3", sampleSP3(0))

	stdout, _, err := execute(t, "inspect", "--chart", in)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	for _, want := range []string{"SATELLITE", "L09 *", "L10", "3 epochs (3 with velocity)", "L09 orbit radius (km)"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("stdout missing %q:\n%s", want, stdout)
		}
	}
}

func TestInspectWithoutInputs(t *testing.T) {
	if _, _, err := execute(t, "inspect"); !errors.Is(err, config.ErrNoInputs) {
		t.Fatalf("error = %v, want ErrNoInputs", err)
	}
}

func TestInspectStoredDatabases(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "a.sp3", sampleSP3(0))
	orbitPath := filepath.Join(dir, "orbit.db")
	clockPath := filepath.Join(dir, "clock.db")
	if _, _, err := execute(t, "convert", "--orbit", orbitPath, "--clock", clockPath, in); err != nil {
		t.Fatalf("convert: %v", err)
	}

	stdout, _, err := execute(t, "inspect", "--stored", "--chart", orbitPath, clockPath)
	if err != nil {
		t.Fatalf("inspect --stored: %v", err)
	}
	rows := map[string][]string{}
	for _, line := range strings.Split(stdout, "\n") {
		if f := strings.Fields(line); len(f) == 5 {
			rows[f[0]] = f[1:]
		}
	}
	if got := strings.Join(rows[orbitPath], " "); got != "3 3 0 0" {
		t.Fatalf("orbit.db row = %q, want \"3 3 0 0\":\n%s", got, stdout)
	}
	if got := strings.Join(rows[clockPath], " "); got != "0 0 3 0" {
		t.Fatalf("clock.db row = %q, want \"0 0 3 0\":\n%s", got, stdout)
	}
	for _, want := range []string{"orbit.db: 3 epochs (3 with velocity)", "orbit.db orbit radius (km)"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("stdout missing %q:\n%s", want, stdout)
		}
	}
}

func TestInspectStoredMissingDatabase(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.db")
	if _, _, err := execute(t, "inspect", "--stored", missing); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("error = %v, want ErrNotExist", err)
	}
	if _, err := os.Stat(missing); !os.IsNotExist(err) {
		t.Fatalf("inspect created %s", missing)
	}
}

func TestHelpDescribesFrameDirections(t *testing.T) {
	stdout, _, err := execute(t, "--help")
	if err != nil {
		t.Fatalf("help: %v", err)
	}
	for _, want := range []string{"into the\ncelestial frame", "centre of Earth to centre of mass"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("help missing %q:\n%s", want, stdout)
		}
	}
}
