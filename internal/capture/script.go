package capture

import (
	"fmt"

	json "github.com/json-iterator/go"

	"github.com/xkilldash9x/scribe-cli/internal/config"
	"github.com/xkilldash9x/scribe-cli/internal/platform"
)

// BindingName is the CDP binding the recorder script calls with one
// JSON payload per interaction event.
const BindingName = "scribe_capture_event"

const (
	// maxAncestorWalk bounds the click reclassification walk; the
	// nav-pane membership walk gets a little more headroom because
	// navigation trees nest deeply.
	maxAncestorWalk = 10
	navWalkDepth    = 15
)

// scriptConfig is serialized into the injected script so the in-page
// heuristics share the platform's marker tables.
type scriptConfig struct {
	Binding           string   `json:"binding"`
	StableAttr        string   `json:"stableAttr"`
	NavMarkers        []string `json:"navMarkers"`
	ExpandNavControls []string `json:"expandNavControls"`
	ExpandNavLabels   []string `json:"expandNavLabels"`
	MaxAncestors      int      `json:"maxAncestors"`
	NavWalkDepth      int      `json:"navWalkDepth"`
	NavLeftEdgePx     int      `json:"navLeftEdgePx"`
	MaxTextLength     int      `json:"maxTextLength"`
}

// BuildScript renders the recorder script for a platform profile. The
// settings object is prepended as a constant so the template itself
// never goes through a format verb.
func BuildScript(profile *platform.Profile, cfg config.RecorderConfig) (string, error) {
	sc := scriptConfig{
		Binding:           BindingName,
		StableAttr:        profile.StableAttr,
		NavMarkers:        profile.NavMarkers,
		ExpandNavControls: profile.ExpandNavControls,
		ExpandNavLabels:   profile.ExpandNavLabels,
		MaxAncestors:      maxAncestorWalk,
		NavWalkDepth:      navWalkDepth,
		NavLeftEdgePx:     cfg.NavLeftEdgePx,
		MaxTextLength:     cfg.MaxTextLength,
	}
	encoded, err := json.Marshal(sc)
	if err != nil {
		return "", fmt.Errorf("serializing recorder script config: %w", err)
	}
	return fmt.Sprintf("const SCRIBE_SETTINGS = %s;\n%s", string(encoded), recorderScript), nil
}

// recorderScript runs in every document of every frame. Listeners sit
// on the capture phase so the application cannot swallow events before
// they are observed; synthetic events are filtered with isTrusted. The
// script only reads the DOM and emits value copies over the binding.
const recorderScript = `
(function() {
	if (window.__scribeRecorder) return;
	window.__scribeRecorder = { version: 1 };
	const cfg = SCRIBE_SETTINGS;

	const emit = function(payload) {
		try {
			if (typeof window[cfg.binding] === 'function') {
				window[cfg.binding](JSON.stringify(payload));
			}
		} catch (e) { /* binding not installed yet */ }
	};

	const attrOf = function(el, name) {
		return (el.getAttribute && el.getAttribute(name)) || '';
	};

	const matchesAny = function(value, needles) {
		if (!value) return false;
		const v = String(value).toLowerCase();
		for (let i = 0; i < needles.length; i++) {
			if (needles[i] && v.indexOf(needles[i]) >= 0) return true;
		}
		return false;
	};

	const collapse = function(text) {
		return String(text || '').replace(/\s+/g, ' ').trim();
	};

	const directText = function(el) {
		let text = '';
		for (let i = 0; i < el.childNodes.length; i++) {
			const n = el.childNodes[i];
			if (n.nodeType === Node.TEXT_NODE) text += n.textContent;
		}
		// One past the limit keeps the overlong signal without shipping
		// whole-page text.
		return collapse(text).slice(0, cfg.maxTextLength + 1);
	};

	const roleOf = function(el) {
		const explicit = attrOf(el, 'role');
		if (explicit) return explicit;
		const tag = el.tagName ? el.tagName.toLowerCase() : '';
		switch (tag) {
			case 'button': return 'button';
			case 'a': return el.hasAttribute('href') ? 'link' : '';
			case 'select': return 'combobox';
			case 'textarea': return 'textbox';
			case 'input': {
				const type = (attrOf(el, 'type') || 'text').toLowerCase();
				if (type === 'checkbox') return 'checkbox';
				if (type === 'radio') return 'radio';
				if (type === 'button' || type === 'submit') return 'button';
				return 'textbox';
			}
			default: return '';
		}
	};

	const interactiveRoles = ['button', 'link', 'menuitem', 'tab', 'treeitem',
		'option', 'checkbox', 'radio', 'combobox', 'textbox', 'searchbox', 'gridcell'];

	const isInteractive = function(el) {
		const tag = el.tagName ? el.tagName.toLowerCase() : '';
		if (['a', 'button', 'input', 'select', 'textarea', 'option'].indexOf(tag) >= 0) return true;
		return interactiveRoles.indexOf(roleOf(el)) >= 0;
	};

	const inNavPane = function(el) {
		let node = el, depth = 0;
		while (node && node.nodeType === Node.ELEMENT_NODE && depth < cfg.navWalkDepth) {
			if (attrOf(node, 'role') === 'navigation') return true;
			if (matchesAny(attrOf(node, 'class'), cfg.navMarkers)) return true;
			if (matchesAny(node.id, cfg.navMarkers)) return true;
			node = node.parentNode;
			depth++;
		}
		// Spatial fallback: the pane hugs the left edge of the viewport.
		try {
			const rect = el.getBoundingClientRect();
			if (rect.width > 0 && rect.left >= 0 && rect.left <= cfg.navLeftEdgePx) return true;
		} catch (e) {}
		return false;
	};

	const isExpandNav = function(el) {
		if (!el.getAttribute) return false;
		const ctrl = attrOf(el, cfg.stableAttr).toLowerCase();
		if (ctrl && cfg.expandNavControls.indexOf(ctrl) >= 0) return true;
		if (matchesAny(attrOf(el, 'aria-label'), cfg.expandNavLabels)) return true;
		if (matchesAny(attrOf(el, 'title'), cfg.expandNavLabels)) return true;
		return false;
	};

	const accessibleName = function(el) {
		const aria = collapse(attrOf(el, 'aria-label'));
		if (aria) return aria;
		const labelled = attrOf(el, 'aria-labelledby');
		if (labelled) {
			const parts = [];
			labelled.split(/\s+/).forEach(function(id) {
				const ref = document.getElementById(id);
				if (ref) parts.push(collapse(ref.textContent));
			});
			const joined = collapse(parts.join(' '));
			if (joined) return joined;
		}
		const role = roleOf(el);
		if (['button', 'link', 'menuitem', 'tab', 'treeitem', 'option'].indexOf(role) >= 0) {
			const text = collapse(el.textContent);
			if (text && text.length <= 120) return text;
		}
		return '';
	};

	const labelTextOf = function(el) {
		if (el.id) {
			try {
				const forLabel = document.querySelector('label[for="' + CSS.escape(el.id) + '"]');
				if (forLabel) return collapse(forLabel.textContent);
			} catch (e) {}
		}
		const wrap = el.closest ? el.closest('label') : null;
		if (wrap) return collapse(wrap.textContent);
		return '';
	};

	const cssPath = function(el) {
		if (el.id) return '#' + el.id;
		const path = [];
		let node = el;
		while (node && node.nodeType === Node.ELEMENT_NODE && path.length < 8) {
			let sel = node.nodeName.toLowerCase();
			if (node.id) {
				path.unshift(sel + '#' + node.id);
				break;
			}
			const cls = collapse(attrOf(node, 'class'));
			if (cls) sel += '.' + cls.split(' ').slice(0, 2).join('.');
			const parent = node.parentNode;
			if (parent && parent.children) {
				let idx = 1;
				for (let i = 0; i < parent.children.length; i++) {
					const sib = parent.children[i];
					if (sib === node) break;
					if (sib.nodeName === node.nodeName) idx++;
				}
				sel += ':nth-of-type(' + idx + ')';
			}
			path.unshift(sel);
			node = node.parentNode;
		}
		return path.join(' > ');
	};

	const attrMap = function(el) {
		const out = {};
		if (!el.attributes) return out;
		for (let i = 0; i < el.attributes.length; i++) {
			const a = el.attributes[i];
			if (a.name === 'class' || a.name === 'style' || a.name.indexOf('on') === 0) continue;
			out[a.name] = String(a.value).slice(0, 256);
		}
		return out;
	};

	const nodeInfo = function(el) {
		return {
			tag: el.tagName ? el.tagName.toLowerCase() : '',
			id: el.id || '',
			classes: collapse(attrOf(el, 'class')).split(' ').filter(Boolean),
			role: roleOf(el),
			text: directText(el),
			ariaLabel: attrOf(el, 'aria-label'),
			title: attrOf(el, 'title'),
			attrs: attrMap(el)
		};
	};

	const ancestorChain = function(el) {
		const chain = [];
		let node = el.parentNode;
		while (node && node.nodeType === Node.ELEMENT_NODE && chain.length < cfg.maxAncestors) {
			chain.push(nodeInfo(node));
			node = node.parentNode;
		}
		return chain;
	};

	const leftEdge = function(el) {
		try { return el.getBoundingClientRect().left; } catch (e) { return -1; }
	};

	const snapshot = function(el, expandNav) {
		return Object.assign(nodeInfo(el), {
			name: accessibleName(el),
			placeholder: attrOf(el, 'placeholder'),
			labelText: labelTextOf(el),
			navPane: inNavPane(el),
			expandNav: expandNav || isExpandNav(el),
			interactive: isInteractive(el),
			leftX: leftEdge(el),
			cssPath: cssPath(el),
			frameUrl: location.href,
			ancestors: ancestorChain(el)
		});
	};

	// resolveClickTarget reclassifies a click onto the most meaningful
	// ancestor: an expand-navigation control at any depth wins, then a
	// nav-pane link/tree-item with something to call it by, then the
	// raw target.
	const resolveClickTarget = function(el) {
		let node = el, depth = 0;
		while (node && node.nodeType === Node.ELEMENT_NODE && depth < cfg.maxAncestors) {
			if (isExpandNav(node)) return { el: node, expandNav: true };
			node = node.parentNode;
			depth++;
		}
		node = el;
		depth = 0;
		while (node && node.nodeType === Node.ELEMENT_NODE && depth < cfg.maxAncestors) {
			const role = roleOf(node);
			const navish = role === 'treeitem' || role === 'link' || role === 'menuitem' ||
				(node.tagName && node.tagName.toLowerCase() === 'a');
			if (navish && inNavPane(node)) {
				const name = accessibleName(node) || directText(node) || collapse(attrOf(node, 'title'));
				if (name) return { el: node, expandNav: false };
			}
			node = node.parentNode;
			depth++;
		}
		return { el: el, expandNav: false };
	};

	document.addEventListener('click', function(event) {
		if (!event.isTrusted) return;
		const target = event.target;
		if (!target || target.nodeType !== Node.ELEMENT_NODE) return;
		const resolved = resolveClickTarget(target);
		emit({ kind: 'click', element: snapshot(resolved.el, resolved.expandNav), ts: Date.now() });
	}, true);

	document.addEventListener('input', function(event) {
		if (!event.isTrusted || !event.target || !event.target.tagName) return;
		const tag = event.target.tagName.toLowerCase();
		if (tag !== 'input' && tag !== 'textarea' && !event.target.isContentEditable) return;
		emit({ kind: 'input', element: snapshot(event.target, false), value: String(event.target.value || ''), ts: Date.now() });
	}, true);

	document.addEventListener('change', function(event) {
		if (!event.isTrusted || !event.target || !event.target.tagName) return;
		const el = event.target;
		const tag = el.tagName.toLowerCase();
		if (tag === 'select') {
			const opt = el.selectedIndex >= 0 ? el.options[el.selectedIndex] : null;
			emit({ kind: 'change', element: snapshot(el, false), value: opt ? collapse(opt.textContent) : String(el.value || ''), ts: Date.now() });
			return;
		}
		if (tag === 'input' || tag === 'textarea') {
			emit({ kind: 'input', element: snapshot(el, false), value: String(el.value || ''), commit: true, ts: Date.now() });
		}
	}, true);

	document.addEventListener('keydown', function(event) {
		if (!event.isTrusted || event.key !== 'Enter') return;
		const el = event.target;
		if (!el || !el.tagName) return;
		const tag = el.tagName.toLowerCase();
		if (tag === 'input' || tag === 'textarea' || roleOf(el) === 'combobox') {
			emit({ kind: 'input', element: snapshot(el, false), value: String(el.value || ''), commit: true, ts: Date.now() });
		}
	}, true);
})();
`
