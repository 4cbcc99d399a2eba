package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"cropdoc/internal/kb"
)

// tomatoCatalog is a minimal but realistic tomato catalog used across
// integration-style tests.
var tomatoCatalog = map[string]string{
	"tomato/late_blight.yaml": `disease: "Фітофтороз томата"
crop: tomato
stages: [vegetative, flowering, fruiting]
symptoms: "Темні водянисті плями на листках і стеблах, білий наліт на нижньому боці листка у вологу погоду."
actions:
  diagnostics: ["Оглянути нижній бік листків на наявність нальоту"]
  agronomy: ["Видалити уражені рослини з поля"]
  chemical: ["Обробка фунгіцидом на основі манкоцебу"]
  bio: ["Біопрепарати на основі Bacillus subtilis"]
`,
	"tomato/septoria.yaml": `disease: "Септоріоз томата"
crop: tomato
stages: [vegetative, flowering]
symptoms: "Дрібні округлі світлі плями з темною облямівкою на нижніх листках."
actions:
  agronomy: ["Прибрати рослинні рештки"]
  chemical: ["Мідьвмісні препарати"]
`,
}

// WriteKB materializes the sample catalog under dir and returns the
// loaded index.
func WriteKB(t testing.TB, dir string) *kb.Index {
	t.Helper()

	for name, content := range tomatoCatalog {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", path, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}

	index, err := kb.Load(dir)
	if err != nil {
		t.Fatalf("load test catalog: %v", err)
	}
	return index
}
