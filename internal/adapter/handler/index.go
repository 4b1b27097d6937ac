package handler

// Minimal landing page with an upload form, handy for manual testing from
// a browser.
const indexPage = `<!DOCTYPE html>
<html>
<head>
    <title>vidstore</title>
    <style>
        body { font-family: sans-serif; max-width: 640px; margin: 40px auto; }
        fieldset { border: 1px solid #ccc; padding: 16px; }
    </style>
</head>
<body>
    <h1>vidstore</h1>
    <p>Upload a video file. Accepted types: video/mp4, video/mpeg.</p>
    <form action="/v1/files" method="post" enctype="multipart/form-data">
        <fieldset>
            <input type="file" name="data" accept="video/mp4,video/mpeg">
            <button type="submit">Upload</button>
        </fieldset>
    </form>
    <p><a href="/v1/files">List uploaded files</a></p>
</body>
</html>
`
