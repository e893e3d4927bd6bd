package portal

import (
	"encoding/json"
	"fmt"
)

const listExamsScript = `Array.from(document.querySelector('select').options).map(o => ({value: o.value, text: o.text.trim()}))`

// fireChange notifies framework listeners that a select value changed.
const fireChange = `sel.dispatchEvent(new Event('input', {bubbles: true}));
sel.dispatchEvent(new Event('change', {bubbles: true}));`

func labelXPath(label string) string {
	return fmt.Sprintf(`//label[contains(text(), '%s')]`, label)
}

func selectExamScript(value string) string {
	return fmt.Sprintf(`(function(value) {
const sel = document.querySelector('select');
if (!sel || !Array.from(sel.options).some(o => o.value === value)) return false;
sel.value = value;
%s
return true;
})(%s)`, fireChange, jsString(value))
}

// selectByLabelScript chooses, in the select a <label> points at, the first
// option matching wanted: equal to one entry when exact, otherwise
// containing one. It evaluates to the chosen option text or "".
func selectByLabelScript(label string, wanted []string, exact bool) string {
	return fmt.Sprintf(`(function(label, wanted, exact) {
const l = Array.from(document.querySelectorAll('label')).find(l => l.textContent.includes(label));
if (!l) return '';
const sel = document.getElementById(l.getAttribute('for'));
if (!sel) return '';
const opt = Array.from(sel.options).find(o => {
  const text = o.text.trim();
  return exact ? wanted.includes(text) : wanted.some(w => text.includes(w));
});
if (!opt) return '';
sel.value = opt.value;
%s
return opt.text.trim();
})(%s, %s, %t)`, fireChange, jsString(label), jsArray(wanted), exact)
}

func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func jsArray(items []string) string {
	if items == nil {
		items = []string{}
	}
	b, _ := json.Marshal(items)
	return string(b)
}
