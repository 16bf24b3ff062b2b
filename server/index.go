package server

const indexHTML = `<!DOCTYPE html>
<html>
<head>
    <title>Crop Recognition API</title>
    <style>
        body {
            font-family: Arial, sans-serif;
            max-width: 800px;
            margin: 50px auto;
            padding: 20px;
            background: #f5f5f5;
        }
        .container {
            background: white;
            padding: 30px;
            border-radius: 10px;
            box-shadow: 0 2px 10px rgba(0,0,0,0.1);
        }
        h1 { color: #333; }
        .endpoint {
            background: #f8f9fa;
            padding: 15px;
            margin: 10px 0;
            border-left: 4px solid #667eea;
            border-radius: 5px;
        }
        code {
            background: #e9ecef;
            padding: 2px 5px;
            border-radius: 3px;
        }
    </style>
</head>
<body>
    <div class="container">
        <h1>Crop Recognition API</h1>
        <p>Your API is running successfully!</p>

        <h2>Available Endpoints:</h2>

        <div class="endpoint">
            <strong>POST /recognize</strong><br>
            Upload image file for crop recognition<br>
            <code>Content-Type: multipart/form-data</code>
        </div>

        <div class="endpoint">
            <strong>POST /recognize-base64</strong><br>
            Send base64 encoded image<br>
            <code>Content-Type: application/json</code>
        </div>

        <div class="endpoint">
            <strong>GET /health</strong><br>
            Check API health status
        </div>
    </div>
</body>
</html>
`
