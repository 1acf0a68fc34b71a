package bingo

import (
	"errors"
	"math/rand"
	"strings"
)

var ErrExhaustedPool = errors.New("exhausted_pool")

// DefaultPool is the built-in list of drawable item names.
var DefaultPool = []string{
	"Albedo", "Alhaitham", "Aloy", "Amber", "Arataki Itto", "Baizhu", "Barbara", "Beidou",
	"Bennett", "Candace", "Chongyun", "Collei", "Cyno", "Dehya", "Diluc", "Diona",
	"Dori", "Eula", "Faruzan", "Fischl", "Ganyu", "Gorou", "Hu Tao", "Jean",
	"Kaedehara Kazuha", "Kaeya", "Kamisato Ayaka", "Kamisato Ayato", "Keqing", "Klee",
	"Kujou Sara", "Kuki Shinobu", "Layla", "Lisa", "Mona", "Nahida", "Nilou", "Ningguang",
	"Noelle", "Qiqi", "Raiden Shogun", "Razor", "Rosaria", "Sangonomiya Kokomi", "Sayu",
	"Shenhe", "Shikanoin Heizou", "Sucrose", "Tartaglia", "Thoma", "Tighnari", "Venti",
	"Wanderer", "Xiangling", "Xiao", "Xingqiu", "Xinyan", "Yae Miko", "Yanfei", "Yaoyao",
	"Yelan", "Yoimiya", "Yun Jin", "Zhongli",
}

// ParsePool splits a comma separated list into unique, trimmed names.
// It falls back to DefaultPool when the result is smaller than a board.
func ParsePool(raw string) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	if len(out) < Size {
		return append([]string(nil), DefaultPool...)
	}
	return out
}

// Remaining returns pool items not present in drawn, in pool order.
func Remaining(pool, drawn []string) []string {
	taken := make(map[string]struct{}, len(drawn))
	for _, name := range drawn {
		taken[name] = struct{}{}
	}
	out := make([]string, 0, len(pool))
	for _, name := range pool {
		if _, ok := taken[name]; !ok {
			out = append(out, name)
		}
	}
	return out
}

// DrawFrom picks uniformly among the items of pool that have not been drawn.
func DrawFrom(pool, drawn []string, rnd *rand.Rand) (string, error) {
	left := Remaining(pool, drawn)
	if len(left) == 0 {
		return "", ErrExhaustedPool
	}
	return left[rnd.Intn(len(left))], nil
}

// Fill places random unused pool items into the empty slots of b.
func Fill(b Board, pool []string, rnd *rand.Rand) Board {
	out := b.Normalize()
	used := make([]string, 0, Size)
	for _, v := range out {
		if v != "" {
			used = append(used, v)
		}
	}
	left := Remaining(pool, used)
	rnd.Shuffle(len(left), func(i, j int) { left[i], left[j] = left[j], left[i] })
	for i := range out {
		if out[i] != "" {
			continue
		}
		if len(left) == 0 {
			break
		}
		out[i] = left[0]
		left = left[1:]
	}
	return out
}
