package stash

// sceneSubquery selects every field the player needs. Names match the json tags of scene.Scene.
var sceneSubquery = `
id
title
interactive
resume_time
files {
	path
	duration
	width
	height
}
sceneStreams {
	url
	mime_type
	label
}
captions {
	language_code
	caption_type
}
scene_markers {
	title
	seconds
	primary_tag {
		name
	}
	tags {
		name
	}
}
tags {
	name
}
paths {
	screenshot
	caption
	vtt
	funscript
}
`

var findSceneQuery = `
query ($id: ID!) {
	findScene(id: $id) {
` + sceneSubquery + `
	}
}
`

var saveActivityMutation = `
mutation ($id: ID!, $resume: Float, $played: Float) {
	sceneSaveActivity(id: $id, resume_time: $resume, playDuration: $played)
}
`

var incrementPlayCountMutation = `
mutation ($id: ID!) {
	sceneIncrementPlayCount(id: $id)
}
`
