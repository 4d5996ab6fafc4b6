package catalog

// Genre keys partitioning the catalog.
const (
	GenreHouse       = "house"
	GenreTechno      = "techno"
	GenreProgressive = "progressive"
	GenreRemember    = "remember"
	GenrePrivate     = "private"
)

// Session describes one audio piece exposed to the frontend. Playback happens
// against AudioURL, which always points at a third-party host.
type Session struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Description string `json:"description"`
	Cover       string `json:"cover"`
	AudioURL    string `json:"audio_url"`
	Duration    int    `json:"duration"`
	CreatedAt   string `json:"created_at"`
}

// Shelf groups the sessions of a single genre.
type Shelf struct {
	Genre    string
	Sessions []Session
}

// RequiresAuth reports whether listing the genre needs an authenticated client.
func RequiresAuth(genre string) bool {
	return genre == GenrePrivate
}

// Seed provides the catalog shipped with the server.
func Seed() []Shelf {
	return []Shelf{
		{
			Genre: GenreHouse,
			Sessions: []Session{
				{
					ID:          "first-date-vol-ii",
					Title:       "First Date Vol.II",
					Artist:      "Unknown Artist",
					Description: "La primera cita que nadie vio venir. Sin aviso, sin Vol. I. Solo música para desnudarse sin palabras",
					Cover:       "attached_assets/First Date Vol. II_1752256054711.png",
					AudioURL:    "https://archive.org/download/first-date-vol.-ii/First%20Date%20Vol.II.mp3",
					Duration:    3600,
					CreatedAt:   "2024-01-01",
				},
				{
					ID:          "nati-nati",
					Title:       "Nati Nati",
					Artist:      "Unknown Artist",
					Description: "Una oda al groove fino y la emoción en loop. Así suena Nati Nati: femenina, profunda, inolvidable",
					Cover:       "attached_assets/Nati Nati_1752569294098.png",
					AudioURL:    "https://archive.org/download/nati-nati/Nati%20Nati.mp3",
					Duration:    3200,
					CreatedAt:   "2024-01-02",
				},
				{
					ID:          "ros-in-da-house",
					Title:       "Ros In Da House",
					Artist:      "Unknown Artist",
					Description: "Ritmos profundos y mínimos, texturas orgánicas y matices afro unidos por pulsos melódicos y grooves implacables.",
					Cover:       "attached_assets/ROS.png",
					AudioURL:    "https://dn721404.ca.archive.org/0/items/ros-in-da-house/Ros%20in%20da%20House.flac",
					Duration:    4200,
					CreatedAt:   "2024-01-03",
				},
			},
		},
		{Genre: GenreTechno},
		{
			Genre: GenreProgressive,
			Sessions: []Session{
				{
					ID:          "insane",
					Title:       "Insane",
					Artist:      "Unknown Artist",
					Description: "Imagina a Alicia cayendo, pero esta vez con un bombo hipnótico y pads melódicos. Sigue al conejo.",
					Cover:       "attached_assets/insane.jpg",
					AudioURL:    "https://dn720700.ca.archive.org/0/items/in-sane/InSANE.flac",
					Duration:    4722,
					CreatedAt:   "2024-01-04",
				},
			},
		},
		{Genre: GenreRemember},
		{Genre: GenrePrivate},
	}
}
