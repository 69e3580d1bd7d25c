package assets

import "github.com/dvloznov/smartpause/internal/domain"

// Cache keys are fixed per kind so an existing cache stays valid across releases.
var cacheKeys = map[domain.AssetKind]string{
	domain.AssetBrandMark: "smartpause_logo_cache",
	domain.AssetHero:      "smartpause_hero_cache",
}

var prompts = map[domain.AssetKind]string{
	domain.AssetBrandMark: "A professional minimalist circular logo for a futuristic fintech AI named 'SmartPause'. " +
		"Geometric 'S' combined with a pause icon. Glowing neon cyan and magenta accents, deep black background. " +
		"Vector style, premium branding.",
	domain.AssetHero: "Cinematic, macro photography of a crystal planet core, floating geometric obsidian shards, " +
		"liquid neon magenta and cyan light streams, dark space background, futuristic minimalism, 8k render.",
}

// CacheKey returns the storage key for kind.
func CacheKey(kind domain.AssetKind) string {
	return cacheKeys[kind]
}

// Prompt returns the generation prompt for kind.
func Prompt(kind domain.AssetKind) string {
	return prompts[kind]
}
