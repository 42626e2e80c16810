package brackets

import "math/rand"

// SeededShuffle детерминированно перемешивает срез по заданному
// зерну; используется при раскидывании команд по группам, чтобы
// жеребьёвку можно было воспроизвести.
func SeededShuffle[S ~[]E, E any](slice S, rngSeed int64) {
	rng := rand.New(rand.NewSource(rngSeed))
	rng.Shuffle(
		len(slice),
		func(i, j int) { slice[i], slice[j] = slice[j], slice[i] },
	)
}
