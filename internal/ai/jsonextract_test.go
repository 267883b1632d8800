package ai

import "testing"

func TestExtractJSONObjectPlain(t *testing.T) {
	out, err := ExtractJSONObject(`{"question": "What is Go?", "answer": "A language"}`)
	if err != nil {
		t.Fatal(err)
	}
	if out["question"] != "What is Go?" {
		t.Fatalf("unexpected question: %v", out["question"])
	}
}

func TestExtractJSONObjectFenced(t *testing.T) {
	raw := "Here is the question you asked for:\n```json\n{\"text\": \"q1\"}\n```\nLet me know if you need more."
	out, err := ExtractJSONObject(raw)
	if err != nil {
		t.Fatal(err)
	}
	if out["text"] != "q1" {
		t.Fatalf("unexpected text: %v", out["text"])
	}
}

func TestExtractJSONObjectEmbedded(t *testing.T) {
	raw := `Sure! {"passed": false, "issues": ["ambiguous"]} Hope that helps.`
	out, err := ExtractJSONObject(raw)
	if err != nil {
		t.Fatal(err)
	}
	if out["passed"] != false {
		t.Fatalf("unexpected passed: %v", out["passed"])
	}
}

func TestExtractJSONObjectArrayWrapped(t *testing.T) {
	out, err := ExtractJSONObject(`[{"a": 1}, {"a": 2}]`)
	if err != nil {
		t.Fatal(err)
	}
	items, ok := out["items"].([]interface{})
	if !ok || len(items) != 2 {
		t.Fatalf("expected 2 wrapped items, got %v", out["items"])
	}
}

func TestExtractJSONObjectRepairsSingleQuotes(t *testing.T) {
	out, err := ExtractJSONObject(`{'text': 'single quoted', 'count': 2}`)
	if err != nil {
		t.Fatal(err)
	}
	if out["text"] != "single quoted" {
		t.Fatalf("unexpected text: %v", out["text"])
	}
}

func TestExtractJSONObjectRepairsTrailingCommas(t *testing.T) {
	out, err := ExtractJSONObject(`{"options": ["a", "b",], "text": "q",}`)
	if err != nil {
		t.Fatal(err)
	}
	opts, ok := out["options"].([]interface{})
	if !ok || len(opts) != 2 {
		t.Fatalf("unexpected options: %v", out["options"])
	}
}

func TestExtractJSONObjectRepairsComments(t *testing.T) {
	raw := "{\n\"text\": \"q\", // the stem\n\"answer\": \"a\"\n}"
	out, err := ExtractJSONObject(raw)
	if err != nil {
		t.Fatal(err)
	}
	if out["answer"] != "a" {
		t.Fatalf("unexpected answer: %v", out["answer"])
	}
}

func TestExtractJSONObjectGarbage(t *testing.T) {
	if _, err := ExtractJSONObject("I could not produce a question, sorry."); err == nil {
		t.Fatal("expected error on non-json output")
	}
}

func TestExtractJSONObjectKeepsEscapedQuotes(t *testing.T) {
	out, err := ExtractJSONObject(`{"text": "the so-called \"stable\" sort"}`)
	if err != nil {
		t.Fatal(err)
	}
	if out["text"] != `the so-called "stable" sort` {
		t.Fatalf("unexpected text: %v", out["text"])
	}
}
