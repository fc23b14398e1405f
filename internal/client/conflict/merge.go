package conflict

import (
	"reflect"
	"sort"
)

// MergePayloads выполняет пополевое объединение локального и серверного payload.
// Правила:
//   - поле есть только на сервере — остается серверное значение;
//   - поле есть локально — побеждает локальное значение;
//   - вложенные объекты объединяются рекурсивно по тем же правилам;
//   - оба значения — списки и они различаются: структурный конфликт,
//     автоматическое угадывание запрещено.
//
// Возвращает объединенный payload и отсортированный список полей,
// требующих ручного разрешения.
func MergePayloads(local, remote map[string]any) (map[string]any, []string) {
	merged := make(map[string]any, len(local)+len(remote))
	var conflicts []string

	mergeInto(merged, local, remote, "", &conflicts)

	sort.Strings(conflicts)
	return merged, conflicts
}

func mergeInto(dst, local, remote map[string]any, prefix string, conflicts *[]string) {
	for k, rv := range remote {
		dst[k] = rv
	}

	for k, lv := range local {
		rv, exists := dst[k]
		if !exists {
			dst[k] = lv
			continue
		}

		path := k
		if prefix != "" {
			path = prefix + "." + k
		}

		lm, lIsMap := lv.(map[string]any)
		rm, rIsMap := rv.(map[string]any)
		if lIsMap && rIsMap {
			sub := make(map[string]any, len(lm)+len(rm))
			mergeInto(sub, lm, rm, path, conflicts)
			dst[k] = sub
			continue
		}

		ls, lIsList := lv.([]any)
		rs, rIsList := rv.([]any)
		if lIsList && rIsList && !reflect.DeepEqual(ls, rs) {
			// Несовместимые правки списка: эскалация, серверное значение
			// остается до ручного решения
			*conflicts = append(*conflicts, path)
			continue
		}

		dst[k] = lv
	}
}
