package scrape

import "fmt"

// extractSnapshotJS pulls the positioned grid structure out of the DOM in a
// single evaluation: week headers with their column dates, and assignment
// row blocks with their day cells. Vertical offsets come from the absolute
// `top` style the virtualized grid positions its blocks with; the Go side
// treats them as opaque ordering keys.
const extractSnapshotJS = `(() => {
	const topOf = (el) => {
		const m = /top:\s*(\d+)px/.exec(el.getAttribute('style') || '');
		return m ? parseInt(m[1], 10) : null;
	};

	const headers = [];
	document.querySelectorAll('.header-wrapper').forEach((h) => {
		const top = topOf(h);
		if (top === null) return;
		const dates = [];
		h.querySelectorAll(".header .date[data-cy='dayColumn']").forEach((d) => {
			const v = d.getAttribute('data-date');
			if (v) dates.push(v);
		});
		if (dates.length) headers.push({ offset: top, dates: dates });
	});

	const rows = [];
	document.querySelectorAll('.data-rows').forEach((block) => {
		const top = topOf(block);
		if (top === null) return;
		const row = block.querySelector('.DataRow');
		if (!row) return;
		const left = row.querySelector(".leftCol[data-cy='leftCol']");
		if (!left) return;

		const cells = [];
		row.querySelectorAll("[data-cy='dataCell']").forEach((cell) => {
			const textEl = cell.querySelector("span[data-cy='DataCellTextValue']");
			if (!textEl) {
				cells.push({ text: '', times: '', pending_change: false });
				return;
			}
			const timesEl = textEl.querySelector('span.times');
			cells.push({
				text: textEl.innerText.trim(),
				times: timesEl ? timesEl.innerText.trim() : '',
				pending_change: (textEl.getAttribute('class') || '').includes('pending-chg'),
			});
		});

		rows.push({ offset: top, assignment: left.innerText.trim(), cells: cells });
	});

	return { headers: headers, rows: rows };
})()`

// toggleShowTimesJS checks the hidden show-times checkbox if needed.
const toggleShowTimesJS = `(() => {
	const cb = document.querySelector('#show_times');
	if (!cb) return 'not_found';
	if (cb.checked) return 'already_checked';
	cb.click();
	return 'toggled';
})()`

// checkAllFilterBoxesJS selects every checkbox currently listed in the open
// personnel filter dropdown and returns how many were clicked.
const checkAllFilterBoxesJS = `(() => {
	const boxes = document.querySelectorAll('.menu.open .scrollable .pointer.listitem .fa-checkbox');
	boxes.forEach((b) => b.click());
	return boxes.length;
})()`

// gridScrollDimsJS locates the grid's scrollable element and reports its
// dimensions.
const gridScrollDimsJS = `(() => {
	const c = document.querySelector('.StandardContainer .WeekContainer');
	if (!c) return { found: false, scrollHeight: 0, clientHeight: 0 };
	const el = c.querySelector("[style*='overflow']") || c;
	return { found: true, scrollHeight: el.scrollHeight, clientHeight: el.clientHeight };
})()`

// setGridScrollJS scrolls the grid's scrollable element to the given offset.
func setGridScrollJS(pos int) string {
	return fmt.Sprintf(`(() => {
	const c = document.querySelector('.StandardContainer .WeekContainer');
	if (!c) return;
	const el = c.querySelector("[style*='overflow']") || c;
	el.scrollTop = %d;
})()`, pos)
}

// clickViewLinkJS clicks the sidebar view link whose text contains want
// (case-insensitive); with no match it falls back to the first link.
func clickViewLinkJS(want string) string {
	return fmt.Sprintf(`(() => {
	const links = Array.from(document.querySelectorAll('.Dialog.isTop.ViewOptions a.view-link'));
	if (!links.length) return 'none';
	const want = %q.toLowerCase();
	const hit = want ? links.find((l) => l.innerText.toLowerCase().includes(want)) : null;
	(hit || links[0]).click();
	return hit ? 'matched' : 'fallback';
})()`, want)
}
