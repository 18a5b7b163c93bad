package spotify

import "github.com/ewilliams-labs/shelfsound/internal/core/domain"

func mapTrackToDomain(st spotifyTrack) domain.Track {
	artists := make([]string, 0, len(st.Artists))
	for _, a := range st.Artists {
		if a.Name != "" {
			artists = append(artists, a.Name)
		}
	}

	return domain.Track{
		ID:          st.ID,
		Name:        st.Name,
		Artists:     artists,
		Album:       st.Album.Name,
		PreviewURL:  st.PreviewURL,
		ExternalURL: st.ExternalURLs.Spotify,
		DurationMs:  st.DurationMs,
		Popularity:  st.Popularity,
	}
}

func mapPlaylistToDomain(sp spotifyPlaylist) domain.Playlist {
	p := domain.Playlist{
		ID:          sp.ID,
		Name:        sp.Name,
		Description: sp.Description,
		ExternalURL: sp.ExternalURLs.Spotify,
		TrackCount:  sp.Tracks.Total,
		Owner:       sp.Owner.DisplayName,
	}
	if p.Owner == "" {
		p.Owner = sp.Owner.ID
	}
	if len(sp.Images) > 0 {
		p.ImageURL = sp.Images[0].URL
	}
	return p
}

// mapPlaylistDetail keeps the playlist's track items, skipping null entries.
func mapPlaylistDetail(sp spotifyPlaylist) domain.PlaylistDetail {
	items := sp.Tracks.Items
	tracks := make([]domain.Track, 0, len(items))
	for _, item := range items {
		if item.Track == nil || item.Track.ID == "" {
			continue
		}
		tracks = append(tracks, mapTrackToDomain(*item.Track))
	}

	detail := domain.PlaylistDetail{
		Playlist: mapPlaylistToDomain(sp),
		Tracks:   tracks,
	}
	if detail.TrackCount == 0 {
		detail.TrackCount = len(tracks)
	}
	return detail
}
